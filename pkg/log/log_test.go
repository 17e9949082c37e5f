package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/kitvault/pkg/configs"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any

	for line := range strings.Lines(buf.String()) {
		var m map[string]any
		require.NoError(t, sonic.UnmarshalString(line, &m))
		out = append(out, m)
	}

	return out
}

func TestNewWritesJSONWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer

	l := New(&buf, configs.LogConfig{Level: "warn", Format: configs.LogFormatAuto}, false)
	l.Info().Msg("dropped")
	l.Warn().Str("kit", "k1").Msg("draft expired")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "draft expired", lines[0]["message"])
	assert.Equal(t, configs.AppName, lines[0]["app"])
	assert.Equal(t, "k1", lines[0]["kit"])
}

func TestDebugLowersLevel(t *testing.T) {
	var buf bytes.Buffer

	l := New(&buf, configs.LogConfig{Level: "error", Format: configs.LogFormatJSON}, true)
	l.Debug().Msg("visible")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], zerolog.CallerFieldName)
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer

	l := New(&buf, configs.LogConfig{Level: "info", Format: configs.LogFormatConsole}, false)
	l.Info().Msg("kit imported")

	assert.Contains(t, buf.String(), "kit imported")
	assert.False(t, strings.HasPrefix(buf.String(), "{"))
}

func TestGinWriterSplitsLines(t *testing.T) {
	var buf bytes.Buffer

	l := zerolog.New(&buf)
	w := NewGinWriter(&l, zerolog.WarnLevel)

	in := []byte("[GIN-debug] GET /v1/kits\n\n[GIN-debug] POST /v1/kits\n")

	n, err := w.Write(in)
	require.NoError(t, err)
	assert.Equal(t, len(in), n)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "GET /v1/kits", lines[0]["message"])
	assert.Equal(t, "warn", lines[1]["level"])
	assert.Equal(t, "gin", lines[1]["source"])
}

func TestLevel(t *testing.T) {
	assert.Equal(t, zerolog.WarnLevel, Level("WARN", false))
	assert.Equal(t, zerolog.InfoLevel, Level("", false))
	assert.Equal(t, zerolog.InfoLevel, Level("chatty", false))
	assert.Equal(t, zerolog.DebugLevel, Level("error", true))
	assert.Equal(t, zerolog.TraceLevel, Level("trace", true))
}
