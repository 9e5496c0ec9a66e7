// Package client provides instrumentation wrappers for broker client
// implementations.
package client

import (
	"time"

	"github.com/elbow-jason/kaffe"
	"github.com/elbow-jason/kaffe/metrics"
)

// MetricsClient wraps a kaffe.Client with metrics collection.
type MetricsClient struct {
	client   kaffe.Client
	registry *metrics.Registry
}

var _ kaffe.Client = (*MetricsClient)(nil)

// NewMetricsClient creates a new instrumented client.
func NewMetricsClient(client kaffe.Client, registry *metrics.Registry) kaffe.Client {
	return &MetricsClient{
		client:   client,
		registry: registry,
	}
}

func (c *MetricsClient) PartitionsCount(topic string) (int32, error) {
	n, err := c.client.PartitionsCount(topic)
	c.registry.RecordPartitionLookup(topic, err)
	return n, err
}

func (c *MetricsClient) ProduceSync(topic string, partition int32, msgs []kaffe.TimestampedMessage) error {
	start := time.Now()
	err := c.client.ProduceSync(topic, partition, msgs)
	c.registry.RecordSend(topic, partition, time.Since(start), err)
	return err
}
