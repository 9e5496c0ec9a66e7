package kafkago

import (
	"github.com/segmentio/kafka-go"

	"github.com/elbow-jason/kaffe/errors"
)

// Compression maps a compression name from configuration to a kafka-go
// compression codec. Valid names are "none", "gzip", "snappy", "lz4" and
// "zstd"; the empty string means none.
func Compression(name string) (kafka.Compression, error) {
	switch name {
	case "none", "":
		return 0, nil
	case "gzip":
		return kafka.Gzip, nil
	case "snappy":
		return kafka.Snappy, nil
	case "lz4":
		return kafka.Lz4, nil
	case "zstd":
		return kafka.Zstd, nil
	}
	return 0, errors.Errorf("unknown compression %q", name)
}
