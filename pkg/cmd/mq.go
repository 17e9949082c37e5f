package cmd

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yeisme/kitvault/pkg/configs"
	"github.com/yeisme/kitvault/pkg/internal/storage/mq"
	"github.com/yeisme/kitvault/pkg/queue"
)

var (
	mqCmd = &cobra.Command{
		Use:     "mq",
		Short:   "Kit event broker commands",
		Aliases: []string{"messagequeue"},
	}

	mqListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list registered brokers and kit event topics",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			cfg := configs.GetConfig()

			var rows [][]string
			for _, t := range mq.GetRegisteredMQTypes() {
				rows = append(rows, []string{string(t), mark(t == cfg.MQ.Type)})
			}

			renderTable(cmd.OutOrStdout(), []string{"Broker", "Configured"}, rows)

			ev := cfg.Events.Kit
			topics := [][]string{
				{queue.TopicKitCreated, mark(ev.Created)},
				{queue.TopicKitContentsCreated, mark(ev.ContentsCreated)},
				{queue.TopicKitContentUpdated, mark(ev.ContentUpdated)},
				{queue.TopicKitDefaultChanged, mark(ev.DefaultChanged)},
				{queue.TopicKitDiscarded, mark(ev.Discarded)},
			}

			if !cfg.Events.Enabled {
				for i := range topics {
					topics[i][1] = ""
				}
			}

			renderTable(cmd.OutOrStdout(), []string{"Topic", "Published"}, topics)
		},
	}

	tailTopics []string

	mqTailCmd = &cobra.Command{
		Use:   "tail",
		Short: "print kit lifecycle events as they are published",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			client, err := mq.Open(ctx, &configs.GetConfig().MQ)
			if err != nil {
				return err
			}
			defer client.Close()

			return tailEvents(ctx, cmd.OutOrStdout(), client, tailTopics)
		},
	}
)

type subscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

// tailEvents 每条事件输出一行，ctx 结束后返回.
func tailEvents(ctx context.Context, w io.Writer, sub subscriber, topics []string) error {
	g, ctx := errgroup.WithContext(ctx)

	var mu sync.Mutex

	for _, topic := range topics {
		ch, err := sub.Subscribe(ctx, topic)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}

		g.Go(func() error {
			for m := range ch {
				line := describeEvent(topic, m)

				mu.Lock()
				_, _ = fmt.Fprintln(w, line)
				mu.Unlock()

				m.Ack()
			}

			return nil
		})
	}

	return g.Wait()
}

func describeEvent(topic string, m *message.Message) string {
	hdr, kit, err := queue.Peek(m)
	if err != nil {
		return fmt.Sprintf("%s %s undecodable: %v", time.Now().UTC().Format(time.RFC3339), topic, err)
	}

	line := fmt.Sprintf("%s %s kit=%s", hdr.OccurredAt.Format(time.RFC3339), hdr.Topic, kit.KitID)
	if hdr.TraceID != "" {
		line += " trace=" + hdr.TraceID
	}

	return line
}

// registerMQCommands 注册 MQ 相关命令.
func registerMQCommands() {
	rootCmd.AddCommand(mqCmd)
	mqCmd.AddCommand(mqListCmd, mqTailCmd)

	mqTailCmd.Flags().StringSliceVarP(&tailTopics, "topic", "t", queue.KitTopics(), "topics to follow")
}
