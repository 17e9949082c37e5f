package mq

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/kitvault/pkg/configs"
)

func TestRegisteredBackends(t *testing.T) {
	assert.Equal(t, []configs.MQType{configs.MQTypeNATS, configs.MQTypeRedis}, GetRegisteredMQTypes())
}

func TestOpenUnknownType(t *testing.T) {
	_, err := Open(context.Background(), &configs.MQConfig{Type: "kafka"})
	require.ErrorContains(t, err, "kafka")
}

func TestClientPublishSubscribe(t *testing.T) {
	ps := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	c := NewClient(ps, ps)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := c.Subscribe(ctx, "kv.kit.created")
	require.NoError(t, err)

	type key struct{}
	pubCtx := context.WithValue(ctx, key{}, "kit-1")
	require.NoError(t, c.Publish(pubCtx, "kv.kit.created", message.NewMessage("m1", []byte(`{"kit":"kit-1"}`))))

	select {
	case m := <-ch:
		assert.Equal(t, "m1", m.UUID)
		m.Ack()
	case <-ctx.Done():
		t.Fatal("no message")
	}

	require.NoError(t, c.HealthCheck(ctx))
}

func TestNilClient(t *testing.T) {
	var c *Client

	require.ErrorIs(t, c.HealthCheck(context.Background()), ErrNotReady)
	require.ErrorIs(t, c.Publish(context.Background(), "t"), ErrNotReady)

	_, err := c.Subscribe(context.Background(), "t")
	require.True(t, errors.Is(err, ErrNotReady))
}

func TestNATSConfigMapping(t *testing.T) {
	assert.True(t, jetStreamConfig(configs.MQNATSConfig{}).Disabled)

	js := jetStreamConfig(configs.MQNATSConfig{JetStream: true, AutoProvision: true, DurablePrefix: "kitvault"})
	assert.False(t, js.Disabled)
	assert.True(t, js.AutoProvision)
	assert.Equal(t, "kitvault", js.DurablePrefix)

	base := len(natsOptions(configs.MQNATSConfig{}))
	assert.Len(t, natsOptions(configs.MQNATSConfig{User: "u", Password: "p"}), base+1)
	assert.Len(t, natsOptions(configs.MQNATSConfig{JWT: "jwt", NKey: "seed", User: "u"}), base+1)
}

func TestLoggerAdapter(t *testing.T) {
	var buf bytes.Buffer

	l := NewLoggerAdapter(zerolog.New(&buf)).With(watermill.LogFields{"topic": "kv.kit.discarded"})
	l.Error("publish failed", errors.New("broken pipe"), watermill.LogFields{"kit": "kit-1"})

	out := buf.String()
	assert.Contains(t, out, `"topic":"kv.kit.discarded"`)
	assert.Contains(t, out, `"kit":"kit-1"`)
	assert.Contains(t, out, `"error":"broken pipe"`)
	assert.Contains(t, out, `"message":"publish failed"`)
}
