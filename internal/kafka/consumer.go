package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

const DefaultRetryDelay = 5 * time.Second

// Handler receives the raw value of one message. Frames carry the same
// {type, payload} shape as the websocket feed.
type Handler func(value []byte)

// Consumer relays a topic of backend events into a Handler. It is an
// alternative transport for the event feed.
type Consumer struct {
	group      sarama.ConsumerGroup
	topic      string
	retryDelay time.Duration
	logger     *slog.Logger
}

func NewConsumer(brokers []string, groupID, topic string, logger *slog.Logger) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Version = sarama.V2_6_0_0
	config.Consumer.Offsets.Initial = sarama.OffsetNewest

	group, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer group: %w", err)
	}
	return NewConsumerWith(group, topic, logger), nil
}

// NewConsumerWith wraps an existing consumer group.
func NewConsumerWith(group sarama.ConsumerGroup, topic string, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{group: group, topic: topic, retryDelay: DefaultRetryDelay, logger: logger}
}

// Run consumes until ctx is done, restarting the consumption cycle after
// errors and rebalances.
func (c *Consumer) Run(ctx context.Context, handle Handler) {
	handler := &groupHandler{handle: handle}

	for {
		if ctx.Err() != nil {
			c.logger.Info("Consumer: context cancelled, stopping")
			return
		}

		c.logger.Info("Consumer: starting consumption cycle", "topic", c.topic)
		if err := c.group.Consume(ctx, []string{c.topic}, handler); err != nil {
			c.logger.Warn("Consumer: consume failed", "error", err, "retry_in", c.retryDelay)
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.retryDelay):
			}
		}
	}
}

func (c *Consumer) Close() error {
	if err := c.group.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka consumer: %w", err)
	}
	return nil
}

type groupHandler struct {
	handle Handler
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim marks each message only after the handler returned.
func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			h.handle(msg.Value)
			sess.MarkMessage(msg, "")
		case <-sess.Context().Done():
			return nil
		}
	}
}
