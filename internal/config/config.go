package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	GPS    GPSConfig    `yaml:"gps"`
	Baro   BaroConfig   `yaml:"baro"`
	Record RecordConfig `yaml:"record"`
	MQTT   MQTTConfig   `yaml:"mqtt"`
	Status StatusConfig `yaml:"status"`
	Log    LogConfig    `yaml:"log"`
}

type GPSConfig struct {
	// Source is "serial" or "gpsd".
	Source   string `yaml:"source"`
	Device   string `yaml:"device"`
	Baud     int    `yaml:"baud"`
	GPSDAddr string `yaml:"gpsd_addr"`

	ConfigureReceiver bool `yaml:"configure_receiver"`
	UpdateRateHz      int  `yaml:"update_rate_hz"`

	FrameCapacity int `yaml:"frame_capacity"`
	ChunkBuffer   int `yaml:"chunk_buffer"`
}

type BaroConfig struct {
	Disable bool `yaml:"disable"`

	I2CBus  int    `yaml:"i2c_bus"`
	Address uint16 `yaml:"address"`
	EOCChip string `yaml:"eoc_chip"`
	EOCLine string `yaml:"eoc_line"`

	Oversampling int     `yaml:"oversampling"`
	SeaLevelPa   float64 `yaml:"sea_level_pa"`

	Tick              time.Duration `yaml:"tick"`
	ConversionTimeout time.Duration `yaml:"conversion_timeout"`
	MaxRetries        int           `yaml:"max_retries"`
}

type RecordConfig struct {
	Path      string `yaml:"path"`
	Separator string `yaml:"separator"`
}

type MQTTConfig struct {
	Enable   bool          `yaml:"enable"`
	Broker   string        `yaml:"broker"`
	ClientID string        `yaml:"client_id"`
	Topic    string        `yaml:"topic"`
	QoS      int           `yaml:"qos"`
	Retain   bool          `yaml:"retain"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Timeout  time.Duration `yaml:"timeout"`
	// QueueSize bounds records waiting for the broker; the oldest is dropped.
	QueueSize int `yaml:"queue_size"`
}

type StatusConfig struct {
	Chip      string `yaml:"chip"`
	GreenLine string `yaml:"green_line"`
	RedLine   string `yaml:"red_line"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a Config with every default set, including the ones whose
// zero value is meaningful (oversampling 0 is a valid mode, /dev/i2c-0 a
// valid bus).
func Default() Config {
	cfg := Config{}
	cfg.Baro.I2CBus = 1
	cfg.Baro.Oversampling = 2
	applyDefaults(&cfg)
	return cfg
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	if err := DefaultAndValidate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultAndValidate fills unset fields and rejects inconsistent settings.
func DefaultAndValidate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	applyDefaults(cfg)
	return validate(cfg)
}

func applyDefaults(cfg *Config) {
	cfg.GPS.Source = strings.ToLower(strings.TrimSpace(cfg.GPS.Source))
	if cfg.GPS.Source == "" {
		cfg.GPS.Source = "serial"
	}
	if cfg.GPS.Baud == 0 {
		cfg.GPS.Baud = 9600
	}
	if cfg.GPS.GPSDAddr == "" {
		cfg.GPS.GPSDAddr = "127.0.0.1:2947"
	}
	if cfg.GPS.UpdateRateHz == 0 {
		cfg.GPS.UpdateRateHz = 1
	}
	if cfg.GPS.FrameCapacity == 0 {
		cfg.GPS.FrameCapacity = 120
	}
	if cfg.GPS.ChunkBuffer <= 0 {
		cfg.GPS.ChunkBuffer = 16
	}

	if cfg.Baro.Address == 0 {
		cfg.Baro.Address = 0x77
	}
	if cfg.Baro.SeaLevelPa == 0 {
		cfg.Baro.SeaLevelPa = 101325
	}
	if cfg.Baro.Tick <= 0 {
		cfg.Baro.Tick = time.Millisecond
	}
	if cfg.Baro.ConversionTimeout == 0 {
		cfg.Baro.ConversionTimeout = 100 * time.Millisecond
	}
	if cfg.Baro.MaxRetries <= 0 {
		cfg.Baro.MaxRetries = 3
	}

	if cfg.Record.Path == "" {
		cfg.Record.Path = "./gpslog.txt"
	}
	if cfg.Record.Separator == "" {
		cfg.Record.Separator = "|"
	}

	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "gpslogger"
	}
	if cfg.MQTT.Topic == "" {
		cfg.MQTT.Topic = "gpslogger/record"
	}
	if cfg.MQTT.Timeout <= 0 {
		cfg.MQTT.Timeout = 5 * time.Second
	}
	if cfg.MQTT.QueueSize <= 0 {
		cfg.MQTT.QueueSize = 64
	}

	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func validate(cfg *Config) error {
	switch cfg.GPS.Source {
	case "serial", "gpsd":
	default:
		return fmt.Errorf("gps.source must be serial or gpsd (got %q)", cfg.GPS.Source)
	}
	if cfg.GPS.Baud < 0 {
		return fmt.Errorf("gps.baud must be > 0")
	}
	switch cfg.GPS.UpdateRateHz {
	case 1, 5, 10:
	default:
		return fmt.Errorf("gps.update_rate_hz must be 1, 5 or 10")
	}
	if cfg.GPS.ConfigureReceiver && cfg.GPS.Source != "serial" {
		return fmt.Errorf("gps.configure_receiver requires gps.source=serial")
	}
	if cfg.GPS.FrameCapacity < 16 {
		return fmt.Errorf("gps.frame_capacity must be >= 16")
	}

	if cfg.Baro.I2CBus < 0 {
		return fmt.Errorf("baro.i2c_bus must be >= 0")
	}
	if cfg.Baro.Address > 0x7F {
		return fmt.Errorf("baro.address must be a 7-bit address")
	}
	if cfg.Baro.Oversampling < 0 || cfg.Baro.Oversampling > 3 {
		return fmt.Errorf("baro.oversampling must be 0..3")
	}
	if cfg.Baro.SeaLevelPa < 0 {
		return fmt.Errorf("baro.sea_level_pa must be > 0")
	}
	if !cfg.Baro.Disable && strings.TrimSpace(cfg.Baro.EOCLine) == "" {
		return fmt.Errorf("baro.eoc_line is required unless baro.disable is true")
	}

	if strings.ContainsAny(cfg.Record.Separator, "\r\n") {
		return fmt.Errorf("record.separator must not contain a line break")
	}

	if cfg.MQTT.QoS < 0 || cfg.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2")
	}
	if cfg.MQTT.Enable && strings.TrimSpace(cfg.MQTT.Broker) == "" {
		return fmt.Errorf("mqtt.broker is required when mqtt.enable is true")
	}

	switch cfg.Log.Level {
	case "panic", "fatal", "error", "warn", "warning", "info", "debug", "trace":
	default:
		return fmt.Errorf("log.level %q is not a logrus level", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json")
	}
	return nil
}
