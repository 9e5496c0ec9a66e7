package kafkago

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/elbow-jason/kaffe"
)

const bootstrap = "localhost:9092"

func testConfig() kaffe.Config {
	return kaffe.Config{
		ClientName: "test",
		Endpoints:  []string{bootstrap},
	}
}

func testMessages() []kaffe.TimestampedMessage {
	now := time.Now().UnixMilli()
	return []kaffe.TimestampedMessage{
		{Timestamp: now, Key: []byte("foo"), Value: []byte("1")},
		{Timestamp: now, Key: []byte("bar"), Value: []byte("2")},
	}
}

func TestUnitPartitionBalancer(t *testing.T) {
	b := partitionBalancer{}
	for _, want := range []int{0, 2, 7} {
		msg := kafka.Message{Partition: want}
		if p := b.Balance(msg, 0, 1, 2); p != want {
			t.Fatal(want, p)
		}
	}
}

func TestUnitProduceSyncEmpty(t *testing.T) {
	c, err := New(testConfig(), 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.ProduceSync("any", 0, nil); err != nil {
		t.Fatal(err)
	}
}

func TestUnitNewValidation(t *testing.T) {
	if _, err := New(kaffe.Config{}, 0, nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestUnitCompression(t *testing.T) {
	tests := []struct {
		name  string
		codec kafka.Compression
	}{
		{"", 0},
		{"none", 0},
		{"gzip", kafka.Gzip},
		{"snappy", kafka.Snappy},
		{"lz4", kafka.Lz4},
		{"zstd", kafka.Zstd},
	}
	for _, test := range tests {
		codec, err := Compression(test.name)
		if err != nil {
			t.Fatal(err)
		}
		if codec != test.codec {
			t.Fatal(test.name, codec)
		}
	}
	if _, err := Compression("brotli"); err == nil {
		t.Fatal("expected error")
	}
}

func createTopic(t *testing.T) string {
	t.Helper()
	topic := fmt.Sprintf("test-%x", rand.Uint32())
	conn, err := kafka.Dial("tcp", bootstrap)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	controller, err := conn.Controller()
	if err != nil {
		t.Fatal(err)
	}
	controllerConn, err := kafka.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		t.Fatal(err)
	}
	defer controllerConn.Close()
	err = controllerConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     3,
		ReplicationFactor: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	return topic
}

func TestIntegrationPartitionsCount(t *testing.T) {
	topic := createTopic(t)
	c, err := New(testConfig(), 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	n, err := c.PartitionsCount(topic)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatal(n)
	}
}

func TestIntegrationProduceSync(t *testing.T) {
	topic := createTopic(t)
	c, err := New(testConfig(), 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if err := c.ProduceSync(topic, 0, testMessages()); err != nil {
		t.Fatal(err)
	}
	if err := c.ProduceSync(topic, 2, testMessages()); err != nil {
		t.Fatal(err)
	}
}

func TestIntegrationProduceSyncCompressed(t *testing.T) {
	topic := createTopic(t)
	c, err := New(testConfig(), kafka.Snappy, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if err := c.ProduceSync(topic, 1, testMessages()); err != nil {
		t.Fatal(err)
	}
}

func TestIntegrationProduceBadPartition(t *testing.T) {
	topic := createTopic(t)
	c, err := New(testConfig(), 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if err := c.ProduceSync(topic, 100, testMessages()); err == nil {
		t.Fatal("expected error")
	}
}
