// Package producer implements a synchronous partition-routing producer.
package producer

import (
	"time"

	"go.uber.org/zap"

	"github.com/elbow-jason/kaffe"
	"github.com/elbow-jason/kaffe/batch"
	"github.com/elbow-jason/kaffe/errors"
	"github.com/elbow-jason/kaffe/partitioner"
)

// ErrNoTopics is returned by ProduceMessage when the configuration names no
// topics.
var ErrNoTopics = errors.New("no topics configured")

// Producer routes messages to partitions and submits one synchronous send per
// partition group, stopping at the first failure. Producer holds no mutable
// state between calls; it is safe for concurrent use if its Client is. Errors
// reported by the broker are returned, never retried here: retry policy
// belongs to the Client or to the caller.
type Producer struct {
	client  kaffe.Client
	config  kaffe.Config
	batcher *batch.Batcher
	logger  *zap.Logger
}

var _ kaffe.Producer = (*Producer)(nil)

// New returns a Producer that talks to the broker through client. The config
// is a snapshot: changes to it after New have no effect. A nil logger
// disables logging.
func New(client kaffe.Client, config kaffe.Config, logger *zap.Logger) (*Producer, error) {
	if client == nil {
		return nil, errors.New("nil client")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Producer{
		client:  client,
		config:  config,
		batcher: &batch.Batcher{Counter: client},
		logger:  logger,
	}, nil
}

// Produce routes each message with strategy and submits one batch per
// partition, in ascending partition order. Returns nil only if every batch
// was accepted. On the first error the remaining batches are abandoned and
// the error is returned; batches sent before the failure stay sent. Producing
// an empty list is a no-op and involves no broker calls.
func (p *Producer) Produce(topic string, strategy partitioner.Strategy, msgs ...kaffe.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	groups, err := p.batcher.Batch(topic, strategy, msgs)
	if err != nil {
		return err
	}
	for _, partition := range groups.Partitions() {
		if err := p.send(topic, partition, groups[partition]); err != nil {
			return err
		}
	}
	return nil
}

// ProduceSync is Produce with the configured default strategy.
func (p *Producer) ProduceSync(topic string, msgs ...kaffe.Message) error {
	return p.Produce(topic, p.config.Strategy, msgs...)
}

// ProduceToPartition sends every message to the given partition. The strategy
// is overridden with a constant function, so no partition is computed; the
// messages still receive capture timestamps and travel as one batch.
func (p *Producer) ProduceToPartition(topic string, partition int32, msgs ...kaffe.Message) error {
	fixed := partitioner.Custom(func(string, int32, []byte, []byte) int32 { return partition })
	return p.Produce(topic, fixed, msgs...)
}

// ProduceMessage sends one message to the first configured topic with the
// default strategy.
func (p *Producer) ProduceMessage(key, value []byte) error {
	if len(p.config.Topics) == 0 {
		return ErrNoTopics
	}
	return p.ProduceMessageTo(p.config.Topics[0], key, value)
}

// ProduceMessageTo sends one message to topic. The partition is computed
// directly with the default strategy; with exactly one message there is
// nothing to group.
func (p *Producer) ProduceMessageTo(topic string, key, value []byte) error {
	n, err := p.client.PartitionsCount(topic)
	if err != nil {
		return errors.Errorf("partitions count for topic %q: %w", topic, err)
	}
	partition := p.config.Strategy.Choose(topic, n, key, value)
	return p.ProduceMessageToPartition(topic, partition, key, value)
}

// ProduceMessageToPartition sends one message directly to partition,
// bypassing partition selection and grouping. No partition count lookup is
// made.
func (p *Producer) ProduceMessageToPartition(topic string, partition int32, key, value []byte) error {
	m := kaffe.TimestampedMessage{
		Timestamp: time.Now().UnixMilli(),
		Key:       key,
		Value:     value,
	}
	return p.send(topic, partition, []kaffe.TimestampedMessage{m})
}

func (p *Producer) send(topic string, partition int32, group []kaffe.TimestampedMessage) error {
	if err := p.client.ProduceSync(topic, partition, group); err != nil {
		return errors.Errorf("produce to %s/%d: %w", topic, partition, err)
	}
	p.logger.Debug("produced batch",
		zap.String("topic", topic),
		zap.Int32("partition", partition),
		zap.Int("messages", len(group)))
	return nil
}
