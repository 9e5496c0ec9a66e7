// Loadgen produces synthetic keyed messages at a fixed rate. Each worker
// sends one batch per tick, so the target rate is workers * batches_per_sec *
// batch_size messages per second. Keys are drawn from a bounded set so that
// partition affinity under hash_mod resembles real keyed traffic. All
// configuration is through KAFFE_* environment variables.
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/elbow-jason/kaffe"
	"github.com/elbow-jason/kaffe/client"
	"github.com/elbow-jason/kaffe/client/kafkago"
	"github.com/elbow-jason/kaffe/client/libkafka"
	"github.com/elbow-jason/kaffe/metrics"
	"github.com/elbow-jason/kaffe/partitioner"
	"github.com/elbow-jason/kaffe/producer"
	"github.com/elbow-jason/kaffe/tracing"
)

var (
	projectName  string
	buildVersion string
	buildTime    string
)

type Config struct {
	Bootstrap     string        `env:"KAFFE_BOOTSTRAP" envDefault:"localhost:9092"`
	Topic         string        `env:"KAFFE_TOPIC" envDefault:"kaffe-loadgen"`
	ClientName    string        `env:"KAFFE_CLIENT_NAME"`
	Client        string        `env:"KAFFE_CLIENT" envDefault:"libkafka"`
	Strategy      string        `env:"KAFFE_STRATEGY" envDefault:"hash_mod"`
	Compression   string        `env:"KAFFE_COMPRESSION" envDefault:"none"`
	ZstdLevel     int           `env:"KAFFE_ZSTD_LEVEL" envDefault:"3"`
	Workers       int           `env:"KAFFE_WORKERS" envDefault:"4"`
	BatchSize     int           `env:"KAFFE_BATCH_SIZE" envDefault:"100"`
	BatchesPerSec int           `env:"KAFFE_BATCHES_PER_SEC" envDefault:"10"`
	Duration      time.Duration `env:"KAFFE_DURATION" envDefault:"30s"`
	Keys          int           `env:"KAFFE_KEYS" envDefault:"1000"`
	ValueSize     int           `env:"KAFFE_VALUE_SIZE" envDefault:"128"`
	Singles       bool          `env:"KAFFE_SINGLES" envDefault:"false"`
	Profile       bool          `env:"KAFFE_PPROF" envDefault:"false"`
	LogLevel      string        `env:"KAFFE_LOG_LEVEL" envDefault:"info"`
	Metrics       metrics.ServerConfig
	Tracing       tracing.Config
}

func main() {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to parse environment variables: %v", err)
	}

	if cfg.Profile {
		cpuProfile, err := os.Create("cpu.pprof")
		if err != nil {
			log.Fatalf("could not create CPU profile: %v", err)
		}
		defer cpuProfile.Close()
		if err := pprof.StartCPUProfile(cpuProfile); err != nil {
			log.Fatalf("could not start CPU profile: %v", err)
		}
		defer pprof.StopCPUProfile()
		defer func() {
			memProfile, err := os.Create("mem.pprof")
			if err != nil {
				log.Fatalf("could not create memory profile: %v", err)
			}
			defer memProfile.Close()
			runtime.GC()
			if err := pprof.WriteHeapProfile(memProfile); err != nil {
				log.Fatalf("could not write memory profile: %v", err)
			}
		}()
	}

	zapConfig := zap.NewProductionConfig()
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Printf("invalid log level %q, defaulting to info: %v", cfg.LogLevel, err)
		zapLevel = zapcore.InfoLevel
	}
	zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	logger, err := zapConfig.Build(zap.AddCaller())
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting",
		zap.String("project", projectName),
		zap.String("version", buildVersion),
		zap.String("built", buildTime))

	if cfg.ClientName == "" {
		cfg.ClientName = "kaffe-loadgen-" + uuid.NewString()[:8]
	}
	strategy, err := partitioner.FromName(cfg.Strategy)
	if err != nil {
		log.Fatalf("invalid strategy: %v", err)
	}
	producerConfig := kaffe.Config{
		ClientName: cfg.ClientName,
		Endpoints:  strings.Split(cfg.Bootstrap, ","),
		Topics:     []string{cfg.Topic},
		Strategy:   strategy,
	}

	registry := metrics.NewRegistry()
	registry.SetSystemInfo(buildVersion, buildTime)

	metricsServer := metrics.NewServer(cfg.Metrics, registry, logger)
	go func() {
		if err := metricsServer.Start(context.Background()); err != nil {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	logger.Info("metrics server started",
		zap.String("endpoint", fmt.Sprintf("http://localhost:%d/metrics", cfg.Metrics.Port)),
		zap.String("health", fmt.Sprintf("http://localhost:%d/health", cfg.Metrics.Port)),
	)

	tracer, tracingCleanup, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracingCleanup(shutdownCtx); err != nil {
			logger.Error("failed to cleanup tracing", zap.Error(err))
		}
	}()

	var transport kaffe.Client
	var closeTransport func()
	switch cfg.Client {
	case "libkafka", "":
		compressor, err := libkafka.Compressor(cfg.Compression, cfg.ZstdLevel)
		if err != nil {
			log.Fatalf("invalid compression: %v", err)
		}
		c, err := libkafka.New(producerConfig, compressor, logger)
		if err != nil {
			log.Fatalf("failed to create client: %v", err)
		}
		transport, closeTransport = c, c.Close
	case "kafkago":
		codec, err := kafkago.Compression(cfg.Compression)
		if err != nil {
			log.Fatalf("invalid compression: %v", err)
		}
		c, err := kafkago.New(producerConfig, codec, logger)
		if err != nil {
			log.Fatalf("failed to create client: %v", err)
		}
		transport, closeTransport = c, func() { c.Close() }
	default:
		log.Fatalf("unknown client %q", cfg.Client)
	}
	defer closeTransport()
	transport = client.NewTracedClient(client.NewMetricsClient(transport, registry), tracer)

	base, err := producer.New(transport, producerConfig, logger)
	if err != nil {
		log.Fatalf("failed to create producer: %v", err)
	}
	p := producer.NewTracedProducer(producer.NewMetricsProducer(base, registry), tracer)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sig:
			cancel()
		case <-ctx.Done():
		}
	}()

	var sent atomic.Int64
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < cfg.Workers; w++ {
		g.Go(func() error {
			ticker := time.NewTicker(time.Second / time.Duration(max(cfg.BatchesPerSec, 1)))
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					if cfg.Singles {
						msg := message(cfg.Keys, cfg.ValueSize)
						if err := p.ProduceMessageTo(cfg.Topic, msg.Key, msg.Value); err != nil {
							return err
						}
						sent.Add(1)
						continue
					}
					msgs := batch(cfg.BatchSize, cfg.Keys, cfg.ValueSize)
					if err := p.ProduceSync(cfg.Topic, msgs...); err != nil {
						return err
					}
					sent.Add(int64(len(msgs)))
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("load failed", zap.Error(err))
	}
	elapsed := time.Since(start)
	logger.Info("load complete",
		zap.Int64("messages", sent.Load()),
		zap.Duration("elapsed", elapsed),
		zap.Float64("messages_per_sec", float64(sent.Load())/elapsed.Seconds()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Stop(shutdownCtx); err != nil {
		logger.Error("failed to stop metrics server", zap.Error(err))
	}
}

func message(keys, valueSize int) kaffe.Message {
	value := make([]byte, valueSize)
	for i := range value {
		value[i] = byte('a' + rand.Intn(26))
	}
	return kaffe.Message{
		Key:   []byte(fmt.Sprintf("key-%d", rand.Intn(keys))),
		Value: value,
	}
}

func batch(n, keys, valueSize int) []kaffe.Message {
	msgs := make([]kaffe.Message, n)
	for i := range msgs {
		msgs[i] = message(keys, valueSize)
	}
	return msgs
}
