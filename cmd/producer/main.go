// Producer is a synchronous kafka producer. It reads lines from stdin and
// produces them in batches routed by the configured partition strategy. A tab
// splits a line into key and value; a line without a tab is sent with a nil
// key. Nil keys all hash to the same partition under hash_mod; use -strategy
// random to spread them.
package main

import (
	"bufio"
	"bytes"
	"context"
	"flag"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/elbow-jason/kaffe"
	"github.com/elbow-jason/kaffe/client"
	"github.com/elbow-jason/kaffe/client/kafkago"
	"github.com/elbow-jason/kaffe/client/libkafka"
	"github.com/elbow-jason/kaffe/metrics"
	"github.com/elbow-jason/kaffe/partitioner"
	"github.com/elbow-jason/kaffe/producer"
)

var (
	projectName  string
	buildVersion string
	buildTime    string
)

type config struct {
	Bootstrap   string `yaml:"bootstrap"`
	Topic       string `yaml:"topic"`
	ClientName  string `yaml:"client_name"`
	Client      string `yaml:"client"`
	Strategy    string `yaml:"strategy"`
	Compression string `yaml:"compression"`
	ZstdLevel   int    `yaml:"zstd_level"`
	BatchSize   int    `yaml:"batch_size"`
	MetricsPort int    `yaml:"metrics_port"`
}

// loadConfig binds flags into the config struct. Values from the optional
// yaml file override them.
func loadConfig() (*config, error) {
	cfg := &config{}
	flag.StringVar(&cfg.Bootstrap, "bootstrap", "localhost:9092", "comma separated host:port list")
	flag.StringVar(&cfg.Topic, "topic", "", "topic to produce to (required)")
	flag.StringVar(&cfg.ClientName, "client-name", "", "client id reported to the broker; default kaffe-<random>")
	flag.StringVar(&cfg.Client, "client", "libkafka", "broker client: libkafka or kafkago")
	flag.StringVar(&cfg.Strategy, "strategy", "hash_mod", "partition strategy: hash_mod or random")
	flag.StringVar(&cfg.Compression, "compression", "none", "batch compression: none, lz4, zstd (kafkago also gzip, snappy)")
	flag.IntVar(&cfg.ZstdLevel, "zstd-level", 3, "zstd compression level")
	flag.IntVar(&cfg.BatchSize, "batch-size", 100, "max lines per produce call")
	flag.IntVar(&cfg.MetricsPort, "metrics-port", 9090, "prometheus metrics port, 0 disables")
	configPath := flag.String("config", "", "path to yaml config file; overrides flags")
	flag.Parse()
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	return cfg, nil
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}
	logger.Info("starting",
		zap.String("project", projectName),
		zap.String("version", buildVersion),
		zap.String("built", buildTime),
		zap.String("go", runtime.Version()))
	if cfg.Topic == "" {
		logger.Fatal("no topic configured")
	}
	if cfg.ClientName == "" {
		cfg.ClientName = "kaffe-" + uuid.NewString()[:8]
	}
	strategy, err := partitioner.FromName(cfg.Strategy)
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}
	producerConfig := kaffe.Config{
		ClientName: cfg.ClientName,
		Endpoints:  strings.Split(cfg.Bootstrap, ","),
		Topics:     strings.Split(cfg.Topic, ","),
		Strategy:   strategy,
	}

	registry := metrics.NewRegistry()
	registry.SetSystemInfo(buildVersion, buildTime)

	var transport kaffe.Client
	var closeTransport func()
	switch cfg.Client {
	case "libkafka", "":
		compressor, err := libkafka.Compressor(cfg.Compression, cfg.ZstdLevel)
		if err != nil {
			logger.Fatal("config", zap.Error(err))
		}
		c, err := libkafka.New(producerConfig, compressor, logger)
		if err != nil {
			logger.Fatal("client", zap.Error(err))
		}
		transport, closeTransport = c, c.Close
	case "kafkago":
		codec, err := kafkago.Compression(cfg.Compression)
		if err != nil {
			logger.Fatal("config", zap.Error(err))
		}
		c, err := kafkago.New(producerConfig, codec, logger)
		if err != nil {
			logger.Fatal("client", zap.Error(err))
		}
		transport, closeTransport = c, func() { c.Close() }
	default:
		logger.Fatal("unknown client", zap.String("client", cfg.Client))
	}
	defer closeTransport()

	base, err := producer.New(client.NewMetricsClient(transport, registry), producerConfig, logger)
	if err != nil {
		logger.Fatal("producer", zap.Error(err))
	}
	p := producer.NewMetricsProducer(base, registry)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.MetricsPort > 0 {
		server := metrics.NewServer(metrics.ServerConfig{
			Port:    cfg.MetricsPort,
			Timeout: 30 * time.Second,
		}, registry, logger)
		go func() {
			if err := server.Start(ctx); err != nil {
				logger.Error("metrics server", zap.Error(err))
			}
		}()
	}

	topic := producerConfig.Topics[0]
	msgs := make([]kaffe.Message, 0, cfg.BatchSize)
	produced := 0
	flush := func() {
		if len(msgs) == 0 {
			return
		}
		if err := p.ProduceSync(topic, msgs...); err != nil {
			logger.Fatal("produce", zap.Error(err))
		}
		produced += len(msgs)
		msgs = msgs[:0]
	}
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := append([]byte(nil), scanner.Bytes()...) // scanner reuses its buffer
		key, value, found := bytes.Cut(line, []byte{'\t'})
		if found {
			msgs = append(msgs, kaffe.Message{Key: key, Value: value})
		} else {
			msgs = append(msgs, kaffe.Message{Value: line})
		}
		if len(msgs) == cfg.BatchSize {
			flush()
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Fatal("stdin", zap.Error(err))
	}
	flush()
	logger.Info("done", zap.Int("messages", produced))
}
