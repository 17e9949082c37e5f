package queue_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/kitvault/pkg/queue"
)

// channelPublisher 把 gochannel 适配为 queue.Publisher.
type channelPublisher struct {
	ps *gochannel.GoChannel
}

func (c channelPublisher) Publish(_ context.Context, topic string, msgs ...*message.Message) error {
	return c.ps.Publish(topic, msgs...)
}

func TestPublishKitContentsCreatedRoundTrip(t *testing.T) {
	ps := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 1}, watermill.NopLogger{})
	defer ps.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := ps.Subscribe(ctx, queue.TopicKitContentsCreated)
	require.NoError(t, err)

	payload := queue.KitContentsCreatedPayload{
		Kit:             queue.KitRef{KitID: "k1"},
		Contents:        []queue.ContentRef{{ContentID: "c1", ContentName: "loop.wav", ContentType: "Full Loop"}},
		DefaultFullLoop: "loop.wav",
	}

	err = queue.PublishKitContentsCreated(ctx, channelPublisher{ps}, payload,
		queue.WithProducer("kitvault"), queue.WithTraceID("t-1"))
	require.NoError(t, err)

	select {
	case msg := <-ch:
		env, err := queue.ParseKitContentsCreated(msg)
		require.NoError(t, err)
		msg.Ack()

		assert.Equal(t, queue.TopicKitContentsCreated, env.Header.Topic)
		assert.Equal(t, "kitvault", env.Header.Producer)
		assert.Equal(t, "t-1", msg.Metadata.Get("trace_id"))
		assert.Equal(t, queue.PayloadVersionV1, env.Header.Version)
		assert.Equal(t, payload, env.Payload)
	case <-ctx.Done():
		t.Fatal("no message received")
	}
}

func TestKitTopicsShareNamespace(t *testing.T) {
	for _, topic := range queue.KitTopics() {
		assert.Regexp(t, `^kv\.kit\.`, topic)
	}
}

type recorder struct{ msgs []*message.Message }

func (r *recorder) Publish(_ context.Context, _ string, msgs ...*message.Message) error {
	r.msgs = append(r.msgs, msgs...)
	return nil
}

func TestPublishTakesTraceFromContext(t *testing.T) {
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{0xab, 0xcd},
		SpanID:  trace.SpanID{1},
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	var r recorder
	require.NoError(t, queue.PublishKitDiscarded(ctx, &r, queue.KitDiscardedPayload{
		Kit:     queue.KitRef{KitID: "01HZX"},
		Objects: 3,
		Reason:  "expired",
	}))
	require.Len(t, r.msgs, 1)

	hdr, kit, err := queue.Peek(r.msgs[0])
	require.NoError(t, err)

	assert.Equal(t, sc.TraceID().String(), hdr.TraceID)
	assert.Equal(t, sc.TraceID().String(), r.msgs[0].Metadata.Get("trace_id"))
	assert.Equal(t, "kitvault", hdr.Producer)
	assert.Equal(t, queue.TopicKitDiscarded, hdr.Topic)
	assert.Equal(t, "01HZX", kit.KitID)
}

func TestKitTopicsMatchPattern(t *testing.T) {
	for _, topic := range queue.KitTopics() {
		assert.True(t, strings.HasPrefix(topic, strings.TrimSuffix(queue.TopicPatternKitAll, ">")), topic)
	}
}
