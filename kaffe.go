package kaffe

import (
	"github.com/elbow-jason/kaffe/partitioner"
)

// Message is a single key/value pair supplied by a caller. Key may be nil or
// empty; both are valid and both hash the same way everywhere. Value is
// opaque to kaffe.
type Message struct {
	Key   []byte
	Value []byte
}

// TimestampedMessage is a Message stamped with the wall clock time at which
// the batcher captured it, in milliseconds since the unix epoch. Broker
// clients carry the timestamp to the broker as the record timestamp.
type TimestampedMessage struct {
	Timestamp int64
	Key       []byte
	Value     []byte
}

// Client is the broker transport. Implementations own connection management,
// wire format, and retries below the produce layer. ProduceSync must preserve
// the order of msgs within the written batch and must not return until the
// broker has accepted or rejected the batch. Implementations must be safe for
// concurrent use.
type Client interface {
	PartitionsCount(topic string) (int32, error)
	ProduceSync(topic string, partition int32, msgs []TimestampedMessage) error
}

// Producer is the synchronous produce surface. All methods block until every
// written batch has been accepted by the broker or until the first failure.
// producer.Producer is the canonical implementation; producer.MetricsProducer
// and producer.TracedProducer wrap it.
type Producer interface {
	// Produce routes each message with strategy and submits one batch per
	// partition, in ascending partition order, stopping at the first error.
	Produce(topic string, strategy partitioner.Strategy, msgs ...Message) error
	// ProduceSync is Produce with the configured default strategy.
	ProduceSync(topic string, msgs ...Message) error
	// ProduceToPartition sends every message to the given partition.
	ProduceToPartition(topic string, partition int32, msgs ...Message) error
	// ProduceMessage sends one message to the first configured topic.
	ProduceMessage(key, value []byte) error
	// ProduceMessageTo sends one message to topic with the default strategy.
	ProduceMessageTo(topic string, key, value []byte) error
	// ProduceMessageToPartition sends one message directly to partition,
	// bypassing partition selection and batching.
	ProduceMessageToPartition(topic string, partition int32, key, value []byte) error
}
