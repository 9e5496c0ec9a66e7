// Package libkafka implements the broker client on top of
// github.com/mkocikowski/libkafka.
package libkafka

import (
	"sync"
	"time"

	"github.com/mkocikowski/libkafka/batch"
	"github.com/mkocikowski/libkafka/client"
	"github.com/mkocikowski/libkafka/client/producer"
	liberrors "github.com/mkocikowski/libkafka/errors"
	"github.com/mkocikowski/libkafka/record"
	"go.uber.org/zap"

	"github.com/elbow-jason/kaffe"
	"github.com/elbow-jason/kaffe/compression"
	"github.com/elbow-jason/kaffe/errors"
)

type topicPartition struct {
	topic     string
	partition int32
}

// partitionConn serializes sends to one topic partition. PartitionProducer is
// synchronous; one in flight call per partition leader.
type partitionConn struct {
	mu       sync.Mutex
	producer *producer.PartitionProducer
}

// Client produces synchronously through libkafka partition producers. One
// connection is kept per topic partition; on a failed send that partition's
// connection is closed and reopened on the next send to it. Safe for
// concurrent use. Sends to distinct partitions do not block one another.
type Client struct {
	config     kaffe.Config
	compressor batch.Compressor
	logger     *zap.Logger

	mu        sync.Mutex
	bootstrap string
	conns     map[topicPartition]*partitionConn
}

var _ kaffe.Client = (*Client)(nil)

// New returns a Client ready to produce. A nil compressor means no
// compression. A nil logger disables logging.
func New(config kaffe.Config, compressor batch.Compressor, logger *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if compressor == nil {
		compressor = &compression.None{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		config:     config,
		compressor: compressor,
		logger:     logger,
		conns:      make(map[topicPartition]*partitionConn),
	}, nil
}

// PartitionsCount asks each bootstrap endpoint in order for the topic's
// partition leaders; the first endpoint that answers wins and becomes the
// bootstrap for subsequent partition connections.
func (c *Client) PartitionsCount(topic string) (int32, error) {
	var lastErr error
	for _, endpoint := range c.config.Endpoints {
		leaders, err := client.PartitionLeaders(endpoint, topic)
		if err != nil {
			lastErr = err
			continue
		}
		if len(leaders) == 0 {
			lastErr = errors.Errorf("no leaders for topic %v", topic)
			continue
		}
		c.mu.Lock()
		c.bootstrap = endpoint
		c.mu.Unlock()
		return int32(len(leaders)), nil
	}
	return 0, errors.Errorf("partitions count for topic %q: %w", topic, lastErr)
}

// ProduceSync builds one record batch from msgs, preserving their order,
// compresses it with the configured compressor, and produces it to the
// topic partition, blocking until the broker accepts or rejects it. The batch
// timestamp is the capture time of the first message; libkafka does not
// expose per record timestamps.
func (c *Client) ProduceSync(topic string, partition int32, msgs []kaffe.TimestampedMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	records := make([]*record.Record, len(msgs))
	for i, m := range msgs {
		records[i] = record.New(m.Key, m.Value)
	}
	builder := batch.NewBuilder(time.UnixMilli(msgs[0].Timestamp))
	builder.Add(records...)
	b, err := builder.Build(time.Now().UTC(), c.compressor)
	if err != nil {
		return errors.Errorf("build batch for %s/%d: %w", topic, partition, err)
	}
	conn := c.conn(topic, partition)
	conn.mu.Lock()
	defer conn.mu.Unlock()
	resp, err := conn.producer.Produce(b)
	if err != nil {
		conn.producer.Close()
		return errors.Errorf("produce to %s/%d: %w", topic, partition, err)
	}
	if resp.ErrorCode != liberrors.NONE {
		conn.producer.Close()
		return errors.Wrap(&liberrors.KafkaError{Code: resp.ErrorCode})
	}
	c.logger.Debug("produced",
		zap.String("topic", topic),
		zap.Int32("partition", partition),
		zap.Int("records", len(records)))
	return nil
}

func (c *Client) conn(topic string, partition int32) *partitionConn {
	c.mu.Lock()
	defer c.mu.Unlock()
	tp := topicPartition{topic: topic, partition: partition}
	if conn, ok := c.conns[tp]; ok {
		return conn
	}
	bootstrap := c.bootstrap
	if bootstrap == "" {
		bootstrap = c.config.Endpoints[0]
	}
	conn := &partitionConn{
		producer: &producer.PartitionProducer{
			PartitionClient: client.PartitionClient{
				Bootstrap: bootstrap,
				Topic:     topic,
				Partition: partition,
			},
		},
	}
	c.conns[tp] = conn
	return conn
}

// Close closes all partition connections. The client stays usable after
// Close; connections are reopened on demand.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, conn := range c.conns {
		conn.mu.Lock()
		conn.producer.Close()
		conn.mu.Unlock()
	}
	c.conns = make(map[topicPartition]*partitionConn)
}
