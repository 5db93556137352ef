package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"strings"
	"syscall"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"fuelmon/internal/config"
	"fuelmon/internal/max1704x"
	"fuelmon/internal/mqtt"
	"fuelmon/internal/server"
	"fuelmon/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration (optional)")
	flag.Parse()

	log.Println("Starting fuelmon...")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}

	bus, err := i2creg.Open(cfg.I2C.Bus)
	if err != nil {
		log.Fatalf("failed to open I2C: %v", err)
	}
	defer bus.Close()

	gauge, err := setupGauge(bus, cfg)
	if err != nil {
		log.Fatalf("failed to set up fuel gauge: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MQTT.Enabled {
		client, err := mqtt.Connect(cfg.MQTT)
		if err != nil {
			// The HTTP endpoint still works without a broker.
			log.Printf("Failed to connect to MQTT broker: %v", err)
		} else {
			defer client.Close()
			reporter := &telemetry.Reporter{
				Gauge:    gauge,
				Pub:      client,
				Topic:    cfg.MQTT.Topic,
				Interval: cfg.GetPublishInterval(),
			}
			go reporter.Run(ctx)
			log.Printf("Publishing telemetry to %q every %v", cfg.MQTT.Topic, cfg.GetPublishInterval())
		}
	}

	opts := server.Options{
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
	}
	if err := server.Run(cfg.Server.Port, gauge, opts); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func setupGauge(bus i2c.Bus, cfg *config.Config) (*max1704x.Dev, error) {
	model, ok := max1704x.ParseModel(strings.ToLower(cfg.Gauge.Model))
	if !ok {
		return nil, fmt.Errorf("unknown gauge model %q", cfg.Gauge.Model)
	}

	opts := max1704x.Opts{Model: model, FullScale: cfg.Gauge.FullScale}
	if cfg.Gauge.Debug {
		opts.Debug = log.Default()
	}
	gauge, err := max1704x.New(bus, opts)
	if err != nil {
		return nil, err
	}

	if err := gauge.Detect(); err != nil {
		return nil, err
	}
	if ver, err := gauge.Version(); err != nil {
		log.Printf("Failed to read gauge version: %v", err)
	} else {
		log.Printf("Fuel gauge %s detected (version %d, addr 0x%X)", gauge, ver, max1704x.Addr)
	}

	// Boot-time setup is best-effort: the gauge keeps working on chip
	// defaults if any of it fails.
	if cfg.Gauge.QuickStart {
		if err := gauge.QuickStart(); err != nil {
			log.Printf("Failed to quick-start gauge: %v", err)
		}
	}
	if t := cfg.Gauge.AlertThreshold; t > 0 {
		if err := gauge.SetThreshold(uint8(t)); err != nil {
			log.Printf("Failed to set alert threshold: %v", err)
		}
	}
	if c := cfg.Gauge.Compensation; c >= 0 {
		if err := gauge.SetCompensation(uint8(c)); err != nil {
			log.Printf("Failed to set compensation: %v", err)
		}
	}
	return gauge, nil
}
