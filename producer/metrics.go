package producer

import (
	"time"

	"github.com/elbow-jason/kaffe"
	"github.com/elbow-jason/kaffe/metrics"
	"github.com/elbow-jason/kaffe/partitioner"
)

// MetricsProducer wraps a kaffe.Producer with metrics collection. Operations
// that take no topic argument are recorded with an empty topic label.
type MetricsProducer struct {
	producer kaffe.Producer
	registry *metrics.Registry
}

var _ kaffe.Producer = (*MetricsProducer)(nil)

// NewMetricsProducer creates a new instrumented producer.
func NewMetricsProducer(producer kaffe.Producer, registry *metrics.Registry) kaffe.Producer {
	return &MetricsProducer{
		producer: producer,
		registry: registry,
	}
}

func (p *MetricsProducer) Produce(topic string, strategy partitioner.Strategy, msgs ...kaffe.Message) error {
	start := time.Now()
	err := p.producer.Produce(topic, strategy, msgs...)
	p.registry.RecordProduce(topic, len(msgs), time.Since(start), err)
	return err
}

func (p *MetricsProducer) ProduceSync(topic string, msgs ...kaffe.Message) error {
	start := time.Now()
	err := p.producer.ProduceSync(topic, msgs...)
	p.registry.RecordProduce(topic, len(msgs), time.Since(start), err)
	return err
}

func (p *MetricsProducer) ProduceToPartition(topic string, partition int32, msgs ...kaffe.Message) error {
	start := time.Now()
	err := p.producer.ProduceToPartition(topic, partition, msgs...)
	p.registry.RecordProduce(topic, len(msgs), time.Since(start), err)
	return err
}

func (p *MetricsProducer) ProduceMessage(key, value []byte) error {
	start := time.Now()
	err := p.producer.ProduceMessage(key, value)
	p.registry.RecordProduce("", 1, time.Since(start), err)
	return err
}

func (p *MetricsProducer) ProduceMessageTo(topic string, key, value []byte) error {
	start := time.Now()
	err := p.producer.ProduceMessageTo(topic, key, value)
	p.registry.RecordProduce(topic, 1, time.Since(start), err)
	return err
}

func (p *MetricsProducer) ProduceMessageToPartition(topic string, partition int32, key, value []byte) error {
	start := time.Now()
	err := p.producer.ProduceMessageToPartition(topic, partition, key, value)
	p.registry.RecordProduce(topic, 1, time.Since(start), err)
	return err
}
