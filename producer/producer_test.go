package producer

import (
	"errors"
	"testing"

	"github.com/elbow-jason/kaffe"
	"github.com/elbow-jason/kaffe/partitioner"
)

type send struct {
	topic     string
	partition int32
	msgs      []kaffe.TimestampedMessage
}

type mockClient struct {
	PartitionsCountFunc func(topic string) (int32, error)
	ProduceSyncFunc     func(topic string, partition int32, msgs []kaffe.TimestampedMessage) error
	lookups             int
	sends               []send
}

func (m *mockClient) PartitionsCount(topic string) (int32, error) {
	m.lookups++
	return m.PartitionsCountFunc(topic)
}

func (m *mockClient) ProduceSync(topic string, partition int32, msgs []kaffe.TimestampedMessage) error {
	m.sends = append(m.sends, send{topic: topic, partition: partition, msgs: msgs})
	if m.ProduceSyncFunc != nil {
		return m.ProduceSyncFunc(topic, partition, msgs)
	}
	return nil
}

func testConfig(topics ...string) kaffe.Config {
	return kaffe.Config{
		ClientName: "test",
		Endpoints:  []string{"localhost:9092"},
		Topics:     topics,
	}
}

func newTestProducer(t *testing.T, client *mockClient, config kaffe.Config) *Producer {
	t.Helper()
	p, err := New(client, config, nil)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// md5 mod 3: "alpha" routes to 0, "beta" and "gamma" both route to 2.
func TestUnitProduceRoutesAndGroups(t *testing.T) {
	client := &mockClient{
		PartitionsCountFunc: func(string) (int32, error) { return 3, nil },
	}
	p := newTestProducer(t, client, testConfig())
	err := p.Produce("events", partitioner.HashMod,
		kaffe.Message{Key: []byte("alpha"), Value: []byte("1")},
		kaffe.Message{Key: []byte("beta"), Value: []byte("2")},
		kaffe.Message{Key: []byte("gamma"), Value: []byte("3")},
	)
	if err != nil {
		t.Fatal(err)
	}
	if len(client.sends) != 2 {
		t.Fatalf("%+v", client.sends)
	}
	if s := client.sends[0]; s.topic != "events" || s.partition != 0 || len(s.msgs) != 1 {
		t.Fatalf("%+v", s)
	}
	if s := client.sends[1]; s.partition != 2 || len(s.msgs) != 2 {
		t.Fatalf("%+v", s)
	}
	if v := string(client.sends[1].msgs[0].Value); v != "2" {
		t.Fatal(v)
	}
	if v := string(client.sends[1].msgs[1].Value); v != "3" {
		t.Fatal(v)
	}
}

func TestUnitProduceFailFast(t *testing.T) {
	brokerErr := errors.New("broker rejected batch")
	client := &mockClient{
		PartitionsCountFunc: func(string) (int32, error) { return 3, nil },
	}
	client.ProduceSyncFunc = func(_ string, partition int32, _ []kaffe.TimestampedMessage) error {
		if partition == 1 {
			return brokerErr
		}
		return nil
	}
	p := newTestProducer(t, client, testConfig())
	// keys "a", "b", "c" route to partitions 0, 1, 2
	byFirstByte := partitioner.Custom(func(_ string, _ int32, key, _ []byte) int32 {
		return int32(key[0] - 'a')
	})
	err := p.Produce("events", byFirstByte,
		kaffe.Message{Key: []byte("a")},
		kaffe.Message{Key: []byte("b")},
		kaffe.Message{Key: []byte("c")},
	)
	if !errors.Is(err, brokerErr) {
		t.Fatal(err)
	}
	if len(client.sends) != 2 {
		t.Fatalf("%+v", client.sends)
	}
	if client.sends[0].partition != 0 || client.sends[1].partition != 1 {
		t.Fatalf("%+v", client.sends)
	}
}

func TestUnitProduceEmpty(t *testing.T) {
	client := &mockClient{
		PartitionsCountFunc: func(string) (int32, error) { return 3, nil },
	}
	p := newTestProducer(t, client, testConfig())
	if err := p.Produce("events", partitioner.HashMod); err != nil {
		t.Fatal(err)
	}
	if client.lookups != 0 || len(client.sends) != 0 {
		t.Fatal(client.lookups, client.sends)
	}
}

func TestUnitProduceCountLookupError(t *testing.T) {
	lookupErr := errors.New("metadata unavailable")
	client := &mockClient{
		PartitionsCountFunc: func(string) (int32, error) { return 0, lookupErr },
	}
	p := newTestProducer(t, client, testConfig())
	err := p.Produce("events", partitioner.HashMod, kaffe.Message{Key: []byte("k")})
	if !errors.Is(err, lookupErr) {
		t.Fatal(err)
	}
	if len(client.sends) != 0 {
		t.Fatalf("%+v", client.sends)
	}
}

func TestUnitProduceSyncUsesDefaultStrategy(t *testing.T) {
	client := &mockClient{
		PartitionsCountFunc: func(string) (int32, error) { return 5, nil },
	}
	config := testConfig()
	config.Strategy = partitioner.Custom(func(string, int32, []byte, []byte) int32 { return 1 })
	p := newTestProducer(t, client, config)
	err := p.ProduceSync("events",
		kaffe.Message{Key: []byte("x")},
		kaffe.Message{Key: []byte("y")},
	)
	if err != nil {
		t.Fatal(err)
	}
	if len(client.sends) != 1 {
		t.Fatalf("%+v", client.sends)
	}
	if s := client.sends[0]; s.partition != 1 || len(s.msgs) != 2 {
		t.Fatalf("%+v", s)
	}
}

// "alpha" hashes to partition 0 of 3; the explicit partition must win.
func TestUnitProduceToPartition(t *testing.T) {
	client := &mockClient{
		PartitionsCountFunc: func(string) (int32, error) { return 3, nil },
	}
	p := newTestProducer(t, client, testConfig())
	err := p.ProduceToPartition("events", 2,
		kaffe.Message{Key: []byte("alpha"), Value: []byte("1")},
		kaffe.Message{Key: []byte("alpha"), Value: []byte("2")},
		kaffe.Message{Key: []byte("alpha"), Value: []byte("3")},
	)
	if err != nil {
		t.Fatal(err)
	}
	if len(client.sends) != 1 {
		t.Fatalf("%+v", client.sends)
	}
	s := client.sends[0]
	if s.partition != 2 || len(s.msgs) != 3 {
		t.Fatalf("%+v", s)
	}
	for i, m := range s.msgs {
		if string(m.Value) != string(rune('1'+i)) {
			t.Fatal(i, string(m.Value))
		}
		if m.Timestamp == 0 {
			t.Fatal(i)
		}
	}
}

// md5("k1") mod 4 is 2.
func TestUnitProduceMessageFirstTopic(t *testing.T) {
	client := &mockClient{
		PartitionsCountFunc: func(string) (int32, error) { return 4, nil },
	}
	p := newTestProducer(t, client, testConfig("events", "logs"))
	if err := p.ProduceMessage([]byte("k1"), []byte("v")); err != nil {
		t.Fatal(err)
	}
	if len(client.sends) != 1 {
		t.Fatalf("%+v", client.sends)
	}
	s := client.sends[0]
	if s.topic != "events" || s.partition != 2 || len(s.msgs) != 1 {
		t.Fatalf("%+v", s)
	}
}

func TestUnitProduceMessageNoTopics(t *testing.T) {
	client := &mockClient{
		PartitionsCountFunc: func(string) (int32, error) { return 4, nil },
	}
	p := newTestProducer(t, client, testConfig())
	err := p.ProduceMessage([]byte("k"), []byte("v"))
	if !errors.Is(err, ErrNoTopics) {
		t.Fatal(err)
	}
	if client.lookups != 0 || len(client.sends) != 0 {
		t.Fatal(client.lookups, client.sends)
	}
}

// md5("user-42") mod 8 is 3.
func TestUnitProduceMessageTo(t *testing.T) {
	client := &mockClient{
		PartitionsCountFunc: func(string) (int32, error) { return 8, nil },
	}
	p := newTestProducer(t, client, testConfig("events"))
	if err := p.ProduceMessageTo("logs", []byte("user-42"), []byte("v")); err != nil {
		t.Fatal(err)
	}
	if client.lookups != 1 {
		t.Fatal(client.lookups)
	}
	s := client.sends[0]
	if s.topic != "logs" || s.partition != 3 {
		t.Fatalf("%+v", s)
	}
	if m := s.msgs[0]; string(m.Key) != "user-42" || m.Timestamp == 0 {
		t.Fatalf("%+v", m)
	}
}

func TestUnitProduceMessageToPartitionBypass(t *testing.T) {
	client := &mockClient{
		PartitionsCountFunc: func(string) (int32, error) { return 4, nil },
	}
	p := newTestProducer(t, client, testConfig())
	if err := p.ProduceMessageToPartition("events", 3, []byte("k"), []byte("v")); err != nil {
		t.Fatal(err)
	}
	if client.lookups != 0 {
		t.Fatal(client.lookups)
	}
	s := client.sends[0]
	if s.partition != 3 || len(s.msgs) != 1 {
		t.Fatalf("%+v", s)
	}
	if m := s.msgs[0]; string(m.Key) != "k" || string(m.Value) != "v" || m.Timestamp == 0 {
		t.Fatalf("%+v", m)
	}
}

// A custom strategy may return an out of range partition; it is passed to the
// client verbatim and the client's rejection is returned.
func TestUnitCustomStrategyOutOfRange(t *testing.T) {
	badPartition := errors.New("unknown topic or partition")
	client := &mockClient{
		PartitionsCountFunc: func(string) (int32, error) { return 3, nil },
	}
	client.ProduceSyncFunc = func(_ string, partition int32, _ []kaffe.TimestampedMessage) error {
		if partition >= 3 {
			return badPartition
		}
		return nil
	}
	p := newTestProducer(t, client, testConfig())
	outOfRange := partitioner.Custom(func(_ string, partitions int32, _, _ []byte) int32 {
		return partitions
	})
	err := p.Produce("events", outOfRange, kaffe.Message{Key: []byte("k")})
	if !errors.Is(err, badPartition) {
		t.Fatal(err)
	}
	if s := client.sends[0]; s.partition != 3 {
		t.Fatalf("%+v", s)
	}
}

func TestUnitNewValidation(t *testing.T) {
	if _, err := New(nil, testConfig(), nil); err == nil {
		t.Fatal("expected error for nil client")
	}
	client := &mockClient{}
	if _, err := New(client, kaffe.Config{}, nil); err == nil {
		t.Fatal("expected error for empty config")
	}
	if _, err := New(client, kaffe.Config{ClientName: "test"}, nil); err == nil {
		t.Fatal("expected error for missing endpoints")
	}
}
