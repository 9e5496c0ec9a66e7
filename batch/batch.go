// Package batch groups messages by target partition, preserving input order.
package batch

import (
	"sort"
	"time"

	"github.com/elbow-jason/kaffe"
	"github.com/elbow-jason/kaffe/errors"
	"github.com/elbow-jason/kaffe/partitioner"
)

// PartitionCounter resolves the current partition count for a topic.
// kaffe.Client satisfies it.
type PartitionCounter interface {
	PartitionsCount(topic string) (int32, error)
}

// Groups maps a partition to the messages routed to it. Within a partition
// the messages keep the order they were supplied in.
type Groups map[int32][]kaffe.TimestampedMessage

// Partitions returns the partitions that received at least one message, in
// ascending order. Iterating Groups through Partitions keeps submission
// deterministic for a given routing outcome.
func (g Groups) Partitions() []int32 {
	partitions := make([]int32, 0, len(g))
	for p := range g {
		partitions = append(partitions, p)
	}
	sort.Slice(partitions, func(i, j int) bool { return partitions[i] < partitions[j] })
	return partitions
}

// Batcher stamps messages with a capture timestamp and groups them by the
// partition each one resolves to. Batcher holds no state between calls and is
// safe for concurrent use if Counter is.
type Batcher struct {
	// Counter resolves partition counts. Must be set.
	Counter PartitionCounter
}

// Batch stamps each message with the current wall clock time in the order
// given, resolves the partition count for topic (one lookup per call, never
// cached), and routes every message with strategy. If the partition count can
// not be resolved nothing is routed and the error is returned.
func (b *Batcher) Batch(topic string, strategy partitioner.Strategy, msgs []kaffe.Message) (Groups, error) {
	if len(msgs) == 0 {
		return Groups{}, nil
	}
	stamped := make([]kaffe.TimestampedMessage, len(msgs))
	for i, m := range msgs {
		stamped[i] = kaffe.TimestampedMessage{
			Timestamp: time.Now().UnixMilli(),
			Key:       m.Key,
			Value:     m.Value,
		}
	}
	n, err := b.Counter.PartitionsCount(topic)
	if err != nil {
		return nil, errors.Errorf("partitions count for topic %q: %w", topic, err)
	}
	groups := make(Groups)
	for _, m := range stamped {
		p := strategy.Choose(topic, n, m.Key, m.Value)
		groups[p] = append(groups[p], m)
	}
	return groups, nil
}
