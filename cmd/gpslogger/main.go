package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"gpslogger/internal/config"
	"gpslogger/internal/gpio"
	"gpslogger/internal/gps"
	"gpslogger/internal/i2c"
	"gpslogger/internal/record"
	"gpslogger/internal/sensors/bmp085"
	"gpslogger/internal/status"
)

func main() {
	var configPath string
	var summarizePath string
	flag.StringVar(&configPath, "config", "./gpslogger.yaml", "Path to YAML config")
	flag.StringVar(&summarizePath, "summarize", "", "Print a summary of a record log and exit")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if summarizePath != "" {
		if err := printSummary(os.Stdout, summarizePath); err != nil {
			log.WithError(err).Fatal("summarize failed")
		}
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.WithError(err).Fatal("config load failed")
	}
	if err := configureLogger(log, cfg.Log); err != nil {
		log.WithError(err).Fatal("log config invalid")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Error("gpslogger stopped")
		os.Exit(1)
	}
	log.Info("gpslogger stopping")
}

func configureLogger(log *logrus.Logger, cfg config.LogConfig) error {
	lvl, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return nil
}

// holdFatal keeps the error pattern on the LEDs until the operator stops the
// process, then returns err.
func holdFatal(ctx context.Context, log logrus.FieldLogger, err error) error {
	log.WithError(err).Error("fatal, holding error indication until interrupted")
	<-ctx.Done()
	return err
}

func run(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	ind, err := status.Open(status.Config{Chip: cfg.Status.Chip, Green: cfg.Status.GreenLine, Red: cfg.Status.RedLine})
	if err != nil {
		log.WithError(err).Warn("status leds unavailable")
		ind = status.Nop{}
	}
	defer ind.Close()
	_ = ind.Starting()

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}()

	var baro barometer
	if !cfg.Baro.Disable {
		dev, devClosers, err := openBarometer(cfg.Baro, log)
		closers = append(closers, devClosers...)
		if err != nil {
			_ = ind.Fatal()
			return holdFatal(ctx, log, err)
		}
		baro = dev
	}

	fileSink, err := record.OpenFile(cfg.Record.Path, cfg.Record.Separator)
	if err != nil {
		_ = ind.StorageFailed()
		return holdFatal(ctx, log, err)
	}
	sinks := record.Multi{fileSink}
	if cfg.MQTT.Enable {
		ms, err := record.DialMQTT(record.MQTTConfig{
			Broker:    cfg.MQTT.Broker,
			ClientID:  cfg.MQTT.ClientID,
			Topic:     cfg.MQTT.Topic,
			QoS:       byte(cfg.MQTT.QoS),
			Retain:    cfg.MQTT.Retain,
			Username:  cfg.MQTT.Username,
			Password:  cfg.MQTT.Password,
			Timeout:   cfg.MQTT.Timeout,
			QueueSize: cfg.MQTT.QueueSize,
		}, log)
		if err != nil {
			log.WithError(err).Warn("mqtt sink disabled")
		} else {
			sinks = append(sinks, record.BestEffort("mqtt", ms, log))
		}
	}
	defer sinks.Close()

	src, err := gps.OpenSource(ctx, gps.SourceConfig{
		Source:            cfg.GPS.Source,
		Device:            cfg.GPS.Device,
		Baud:              cfg.GPS.Baud,
		ConfigureReceiver: cfg.GPS.ConfigureReceiver,
		UpdateRateHz:      cfg.GPS.UpdateRateHz,
		GPSDAddr:          cfg.GPS.GPSDAddr,
	}, log)
	if err != nil {
		_ = ind.Fatal()
		return holdFatal(ctx, log, err)
	}
	pump := gps.NewPump(src, cfg.GPS.ChunkBuffer, log)
	defer pump.Close()
	go pump.Run(ctx)

	var tick <-chan time.Time
	if baro != nil {
		t := time.NewTicker(cfg.Baro.Tick)
		defer t.Stop()
		tick = t.C
	}

	parser := gps.NewParser(cfg.GPS.FrameCapacity, log.WithField("component", "gps"))
	rt := newRuntime(log, parser, baro, sinks, ind)

	log.WithFields(logrus.Fields{
		"record": cfg.Record.Path,
		"source": cfg.GPS.Source,
		"baro":   !cfg.Baro.Disable,
		"mqtt":   len(sinks) > 1,
	}).Info("gpslogger starting")
	_ = ind.Ready()

	err = rt.run(ctx, pump.C(), tick)
	st := parser.Stats()
	log.WithFields(logrus.Fields{
		"records":      rt.records,
		"frames":       st.Frames,
		"bad_checksum": st.BadChecksum,
		"malformed":    st.Malformed,
		"overflows":    st.Overflows,
	}).Info("gps stream summary")

	if errors.Is(err, errSourceClosed) {
		if perr := pump.Err(); perr != nil && !errors.Is(perr, io.EOF) {
			return fmt.Errorf("%w: %v", errSourceClosed, perr)
		}
	}
	return err
}

// openBarometer returns the device and everything that must be closed on
// shutdown, even when initialization fails part way.
func openBarometer(cfg config.BaroConfig, log logrus.FieldLogger) (*bmp085.Device, []io.Closer, error) {
	var closers []io.Closer
	bus, err := i2c.Open(fmt.Sprintf("/dev/i2c-%d", cfg.I2CBus))
	if err != nil {
		return nil, closers, err
	}
	closers = append(closers, bus)

	eoc, err := gpio.OpenInput(cfg.EOCChip, cfg.EOCLine, "gpslogger-eoc")
	if err != nil {
		return nil, closers, fmt.Errorf("baro eoc: %w", err)
	}
	closers = append(closers, eoc)

	dev, err := bmp085.New(bus.Dev(cfg.Address), eoc, bmp085.Options{
		Oversampling:      cfg.Oversampling,
		SeaLevelPa:        cfg.SeaLevelPa,
		ConversionTimeout: cfg.ConversionTimeout,
		MaxRetries:        cfg.MaxRetries,
	})
	if err != nil {
		return nil, closers, err
	}
	log.WithFields(logrus.Fields{
		"bus":          bus.String(),
		"addr":         fmt.Sprintf("0x%02X", cfg.Address),
		"eoc":          eoc.Name(),
		"oversampling": dev.Oversampling(),
	}).Info("bmp085 ready")
	return dev, closers, nil
}
