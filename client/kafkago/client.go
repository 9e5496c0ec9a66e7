// Package kafkago implements the broker client on top of
// github.com/segmentio/kafka-go.
package kafkago

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/elbow-jason/kaffe"
	"github.com/elbow-jason/kaffe/errors"
)

// partitionBalancer routes every message to the partition already set on it.
// Partitions are computed upstream by the producer; the writer must not
// rebalance them.
type partitionBalancer struct{}

func (partitionBalancer) Balance(msg kafka.Message, partitions ...int) int {
	return msg.Partition
}

// Client produces synchronously through a shared kafka-go Writer. The writer
// manages broker connections internally; WriteMessages blocks until the
// broker acknowledges the batch. Safe for concurrent use.
type Client struct {
	config kaffe.Config
	writer *kafka.Writer
	logger *zap.Logger
}

var _ kaffe.Client = (*Client)(nil)

// New returns a Client ready to produce. Batches are compressed with codec;
// pass 0 for no compression. A nil logger disables logging.
func New(config kaffe.Config, codec kafka.Compression, logger *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(config.Endpoints...),
		Balancer:     partitionBalancer{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		Compression:  codec,
		// small batch timeout so synchronous single-batch writes do not stall
		BatchTimeout: 10 * time.Millisecond,
		Transport:    &kafka.Transport{ClientID: config.ClientName},
	}
	return &Client{
		config: config,
		writer: writer,
		logger: logger,
	}, nil
}

// PartitionsCount dials each bootstrap endpoint in order and reads the
// partition list for topic from the first endpoint that answers.
func (c *Client) PartitionsCount(topic string) (int32, error) {
	dialer := &kafka.Dialer{
		ClientID: c.config.ClientName,
		Timeout:  10 * time.Second,
	}
	var lastErr error
	for _, endpoint := range c.config.Endpoints {
		conn, err := dialer.Dial("tcp", endpoint)
		if err != nil {
			lastErr = err
			continue
		}
		partitions, err := conn.ReadPartitions(topic)
		conn.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if len(partitions) == 0 {
			lastErr = errors.Errorf("no partitions for topic %v", topic)
			continue
		}
		return int32(len(partitions)), nil
	}
	return 0, errors.Errorf("partitions count for topic %q: %w", topic, lastErr)
}

// ProduceSync writes msgs to the topic partition as one batch, preserving
// their order and carrying each message's capture timestamp, and blocks until
// the broker acknowledges the write.
func (c *Client) ProduceSync(topic string, partition int32, msgs []kaffe.TimestampedMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	out := make([]kafka.Message, len(msgs))
	for i, m := range msgs {
		out[i] = kafka.Message{
			Topic:     topic,
			Partition: int(partition),
			Key:       m.Key,
			Value:     m.Value,
			Time:      time.UnixMilli(m.Timestamp),
		}
	}
	if err := c.writer.WriteMessages(context.Background(), out...); err != nil {
		return errors.Errorf("produce to %s/%d: %w", topic, partition, err)
	}
	c.logger.Debug("produced",
		zap.String("topic", topic),
		zap.Int32("partition", partition),
		zap.Int("records", len(out)))
	return nil
}

// Close flushes pending writes and closes the writer.
func (c *Client) Close() error {
	return c.writer.Close()
}
