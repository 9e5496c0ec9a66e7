package producer

import (
	"context"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/elbow-jason/kaffe"
	"github.com/elbow-jason/kaffe/partitioner"
	"github.com/elbow-jason/kaffe/tracing"
)

// TracedProducer wraps a kaffe.Producer with distributed tracing.
// Layer order: TracedProducer -> MetricsProducer -> Producer (real thing).
type TracedProducer struct {
	producer kaffe.Producer
	tracer   *tracing.Tracer
}

var _ kaffe.Producer = (*TracedProducer)(nil)

// NewTracedProducer creates a new traced producer, usually wrapping a metrics
// producer.
func NewTracedProducer(producer kaffe.Producer, tracer *tracing.Tracer) kaffe.Producer {
	return &TracedProducer{
		producer: producer,
		tracer:   tracer,
	}
}

func (p *TracedProducer) Produce(topic string, strategy partitioner.Strategy, msgs ...kaffe.Message) error {
	ctx, span := p.tracer.StartSpan(context.Background(), "producer.produce")
	defer span.End()
	span.SetAttributes(p.tracer.ProduceAttributes(topic, strategy.String(), len(msgs))...)

	err := p.producer.Produce(topic, strategy, msgs...)
	p.finish(ctx, err)
	return err
}

func (p *TracedProducer) ProduceSync(topic string, msgs ...kaffe.Message) error {
	ctx, span := p.tracer.StartSpan(context.Background(), "producer.produce_sync")
	defer span.End()
	span.SetAttributes(p.tracer.ProduceAttributes(topic, "default", len(msgs))...)

	err := p.producer.ProduceSync(topic, msgs...)
	p.finish(ctx, err)
	return err
}

func (p *TracedProducer) ProduceToPartition(topic string, partition int32, msgs ...kaffe.Message) error {
	ctx, span := p.tracer.StartSpan(context.Background(), "producer.produce_to_partition")
	defer span.End()
	span.SetAttributes(p.tracer.SendAttributes(topic, partition, len(msgs))...)

	err := p.producer.ProduceToPartition(topic, partition, msgs...)
	p.finish(ctx, err)
	return err
}

func (p *TracedProducer) ProduceMessage(key, value []byte) error {
	ctx, span := p.tracer.StartSpan(context.Background(), "producer.produce_message")
	defer span.End()

	err := p.producer.ProduceMessage(key, value)
	p.finish(ctx, err)
	return err
}

func (p *TracedProducer) ProduceMessageTo(topic string, key, value []byte) error {
	ctx, span := p.tracer.StartSpan(context.Background(), "producer.produce_message_to")
	defer span.End()
	span.SetAttributes(p.tracer.ProduceAttributes(topic, "default", 1)...)

	err := p.producer.ProduceMessageTo(topic, key, value)
	p.finish(ctx, err)
	return err
}

func (p *TracedProducer) ProduceMessageToPartition(topic string, partition int32, key, value []byte) error {
	ctx, span := p.tracer.StartSpan(context.Background(), "producer.produce_message_to_partition")
	defer span.End()
	span.SetAttributes(p.tracer.SendAttributes(topic, partition, 1)...)

	err := p.producer.ProduceMessageToPartition(topic, partition, key, value)
	p.finish(ctx, err)
	return err
}

func (p *TracedProducer) finish(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if err != nil {
		p.tracer.RecordError(ctx, err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.SetAttributes(p.tracer.ErrorAttributes(err)...)
}
