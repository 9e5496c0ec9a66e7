// Package partitioner implements partition selection strategies for keyed
// messages.
package partitioner

import (
	"crypto/md5"
	"math/rand"

	"github.com/elbow-jason/kaffe/errors"
)

// Fn computes the partition for a single message. It receives the topic, the
// topic's current partition count, and the message key and value. The
// returned partition is used verbatim and is not range checked: an out of
// range value is surfaced by the broker rejecting the write, not here.
type Fn func(topic string, partitions int32, key, value []byte) int32

// Strategy selects the target partition for each message. The zero value is
// HashMod. Strategies are values; copy them freely.
type Strategy struct {
	kind kind
	fn   Fn
}

type kind int

const (
	hashMod kind = iota
	random
	custom
)

// HashMod hashes the message key with md5, interprets the digest as a big
// endian unsigned integer, and reduces it modulo the partition count. A given
// key always maps to the same partition for a given partition count, across
// processes and across runtimes that use the same construction. Nil and empty
// keys hash the same. This is the default strategy.
var HashMod = Strategy{kind: hashMod}

// Random picks a uniformly random partition for every message.
var Random = Strategy{kind: random}

// Custom returns a Strategy that delegates selection to fn. Must not be nil.
func Custom(fn Fn) Strategy {
	return Strategy{kind: custom, fn: fn}
}

// Choose returns the partition for one message. partitions must be >0 for
// HashMod and Random; resolving the count is the caller's job.
func (s Strategy) Choose(topic string, partitions int32, key, value []byte) int32 {
	switch s.kind {
	case random:
		return rand.Int31n(partitions)
	case custom:
		return s.fn(topic, partitions, key, value)
	default:
		return hashModPartition(key, partitions)
	}
}

func (s Strategy) String() string {
	switch s.kind {
	case random:
		return "random"
	case custom:
		return "custom"
	default:
		return "hash_mod"
	}
}

// FromName maps a strategy name from configuration to a Strategy. Valid names
// are "hash_mod" and "random"; the empty string means the default. Custom
// strategies can not be named in configuration.
func FromName(name string) (Strategy, error) {
	switch name {
	case "hash_mod", "":
		return HashMod, nil
	case "random":
		return Random, nil
	}
	return Strategy{}, errors.Errorf("unknown partition strategy %q", name)
}

// hashModPartition folds the digest into the modulus one byte at a time so
// the full 128 bit value is reduced without big integer arithmetic.
func hashModPartition(key []byte, n int32) int32 {
	sum := md5.Sum(key)
	var r uint64
	for _, b := range sum {
		r = (r<<8 | uint64(b)) % uint64(n)
	}
	return int32(r)
}
