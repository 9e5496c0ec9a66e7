package client

import (
	"context"

	"go.opentelemetry.io/otel/codes"

	"github.com/elbow-jason/kaffe"
	"github.com/elbow-jason/kaffe/tracing"
)

// TracedClient wraps a kaffe.Client with distributed tracing. Wrap the
// transport before handing it to the producer so partition sends show up as
// child operations of the produce call.
type TracedClient struct {
	client kaffe.Client
	tracer *tracing.Tracer
}

var _ kaffe.Client = (*TracedClient)(nil)

// NewTracedClient creates a new traced client.
func NewTracedClient(client kaffe.Client, tracer *tracing.Tracer) kaffe.Client {
	return &TracedClient{
		client: client,
		tracer: tracer,
	}
}

func (c *TracedClient) PartitionsCount(topic string) (int32, error) {
	ctx, span := c.tracer.StartSpan(context.Background(), "client.partitions_count")
	defer span.End()

	n, err := c.client.PartitionsCount(topic)
	if err != nil {
		c.tracer.RecordError(ctx, err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return n, err
}

func (c *TracedClient) ProduceSync(topic string, partition int32, msgs []kaffe.TimestampedMessage) error {
	ctx, span := c.tracer.StartSpan(context.Background(), "client.produce_sync")
	defer span.End()
	span.SetAttributes(c.tracer.SendAttributes(topic, partition, len(msgs))...)

	err := c.client.ProduceSync(topic, partition, msgs)
	if err != nil {
		c.tracer.RecordError(ctx, err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.SetAttributes(c.tracer.ErrorAttributes(err)...)
	return err
}
