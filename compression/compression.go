// Package compression provides record batch compressors for the libkafka
// broker client. Type codes are the Kafka wire protocol attribute values
// defined by libkafka.
package compression

import (
	"bytes"

	"github.com/DataDog/zstd"
	"github.com/mkocikowski/libkafka/compression"
	"github.com/pierrec/lz4"
)

// None passes batches through uncompressed. This is the default.
type None struct{}

func (c *None) Compress(src []byte) ([]byte, error) {
	return src, nil
}

func (c *None) Decompress(src []byte) ([]byte, error) {
	return src, nil
}

func (c *None) Type() int16 {
	return compression.None
}

// Lz4 compresses batches with the lz4 frame format.
type Lz4 struct{}

func (c *Lz4) Compress(src []byte) ([]byte, error) {
	buf := new(bytes.Buffer)
	w := lz4.NewWriter(buf)
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Lz4) Type() int16 {
	return compression.Lz4
}

// Zstd compresses batches at the given level. Level 0 means the zstd default
// level.
type Zstd struct {
	Level int
}

func (c *Zstd) Compress(src []byte) ([]byte, error) {
	level := c.Level
	if level == 0 {
		level = zstd.DefaultCompression
	}
	return zstd.CompressLevel(nil, src, level)
}

func (c *Zstd) Decompress(src []byte) ([]byte, error) {
	return zstd.Decompress(nil, src)
}

func (c *Zstd) Type() int16 {
	return compression.Zstd
}
