package libkafka

import (
	"github.com/mkocikowski/libkafka/batch"

	"github.com/elbow-jason/kaffe/compression"
	"github.com/elbow-jason/kaffe/errors"
)

// Compressor maps a compression name from configuration to a batch
// compressor. Valid names are "none", "lz4" and "zstd"; the empty string
// means none. level applies to zstd only.
func Compressor(name string, level int) (batch.Compressor, error) {
	switch name {
	case "none", "":
		return &compression.None{}, nil
	case "lz4":
		return &compression.Lz4{}, nil
	case "zstd":
		return &compression.Zstd{Level: level}, nil
	}
	return nil, errors.Errorf("unknown compression %q", name)
}
