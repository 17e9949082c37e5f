// Package log 持有进程级 zerolog logger.
// 人类可读输出写 stderr，stdout 只留给命令结果；可选 lumberjack 文件轮转.
package log

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mattn/go-isatty"
	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/yeisme/kitvault/pkg/configs"
)

var (
	logger   zerolog.Logger
	initOnce sync.Once
)

// Init 按全局配置初始化 logger，只生效一次.
// 级别通过 zerolog 全局级别控制，配置热重载后随之调整.
func Init() {
	initOnce.Do(func() {
		cfg := configs.GetConfig()
		logger = New(os.Stderr, cfg.Log, cfg.Server.Debug).Level(zerolog.TraceLevel)
		zlog.Logger = logger

		zerolog.SetGlobalLevel(Level(cfg.Log.Level, cfg.Server.Debug))
		configs.OnReload(func(c *configs.AppConfig) {
			lvl := Level(c.Log.Level, c.Server.Debug)
			if lvl != zerolog.GlobalLevel() {
				zerolog.SetGlobalLevel(lvl)
				logger.Info().Str("level", lvl.String()).Msg("log level changed")
			}
		})

		if cfg.Server.Debug {
			gin.SetMode(gin.DebugMode)
		} else {
			gin.SetMode(gin.ReleaseMode)
		}
	})
}

// Level 解析配置中的级别，非法值回退到 info；debug 模式下至少为 debug.
func Level(level string, debug bool) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		if level != "" {
			fmt.Fprintf(os.Stderr, "invalid log level %q, using info\n", level)
		}

		lvl = zerolog.InfoLevel
	}

	if debug && lvl > zerolog.DebugLevel {
		lvl = zerolog.DebugLevel
	}

	return lvl
}

// New 构造 logger，out 为终端输出.
// format 为 auto 时，out 是终端则用彩色文本，否则输出 JSON 行.
func New(out io.Writer, cfg configs.LogConfig, debug bool) zerolog.Logger {
	lvl := Level(cfg.Level, debug)

	writers := []io.Writer{consoleWriter(out, cfg.Format)}

	if cfg.EnableFile {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		})
	}

	zctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(lvl).With().
		Timestamp().
		Str("app", configs.AppName)

	if debug {
		zctx = zctx.Caller()
	}

	return zctx.Logger()
}

func consoleWriter(out io.Writer, format string) io.Writer {
	switch format {
	case configs.LogFormatJSON:
		return out
	case configs.LogFormatConsole:
	default:
		if f, ok := out.(*os.File); !ok || !(isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
			return out
		}
	}

	return zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
}

// Logger 返回全局 logger，首次调用时初始化.
func Logger() *zerolog.Logger {
	Init()

	return &logger
}

// Component 返回带 component 字段的子 logger.
func Component(name string) zerolog.Logger {
	return Logger().With().Str("component", name).Logger()
}

// GinWriter 把 gin 的文本输出逐行转成 zerolog 事件.
type GinWriter struct {
	logger *zerolog.Logger
	level  zerolog.Level
}

// NewGinWriter 用作 gin.DefaultWriter / gin.DefaultErrorWriter.
func NewGinWriter(logger *zerolog.Logger, level zerolog.Level) *GinWriter {
	return &GinWriter{logger: logger, level: level}
}

func (w *GinWriter) Write(p []byte) (int, error) {
	for line := range bytes.Lines(p) {
		msg := strings.TrimPrefix(strings.TrimSpace(string(line)), "[GIN-debug] ")
		if msg == "" {
			continue
		}

		w.logger.WithLevel(w.level).Str("source", "gin").Msg(msg)
	}

	return len(p), nil
}
