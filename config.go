package kaffe

import (
	"github.com/elbow-jason/kaffe/errors"
	"github.com/elbow-jason/kaffe/partitioner"
)

// Config is the configuration snapshot for a producer and its broker client.
// Resolve it once at startup and pass it by value; nothing in kaffe reads
// configuration from global state after construction.
type Config struct {
	// ClientName identifies this producer to the broker and in logs and
	// metrics. Must not be empty.
	ClientName string
	// Endpoints are broker bootstrap addresses, host:port. Must have at
	// least one entry.
	Endpoints []string
	// Topics this producer writes to. ProduceMessage sends to the first
	// one. May be empty if only topic-explicit methods are used.
	Topics []string
	// Strategy is the default partition strategy, used by every produce
	// method that does not take an explicit strategy or partition. The
	// zero value is partitioner.HashMod.
	Strategy partitioner.Strategy
}

// Validate reports the first problem with the config.
func (c Config) Validate() error {
	if c.ClientName == "" {
		return errors.New("config: empty client name")
	}
	if len(c.Endpoints) == 0 {
		return errors.New("config: no endpoints")
	}
	for i, e := range c.Endpoints {
		if e == "" {
			return errors.Errorf("config: empty endpoint at index %d", i)
		}
	}
	return nil
}
