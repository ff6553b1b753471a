package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "cfg.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	return path
}

func requireErrEq(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %q, got nil", want)
	}
	if err.Error() != want {
		t.Fatalf("error=%q want %q", err.Error(), want)
	}
}

func TestLoad_RequiresEOCLine(t *testing.T) {
	path := writeTempConfig(t, "gps: {}\n")
	_, err := Load(path)
	requireErrEq(t, err, "baro.eoc_line is required unless baro.disable is true")
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeTempConfig(t, "baro:\n  eoc_line: '17'\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.GPS.Source != "serial" || cfg.GPS.Baud != 9600 || cfg.GPS.FrameCapacity != 120 || cfg.GPS.UpdateRateHz != 1 {
		t.Fatalf("gps defaults: %+v", cfg.GPS)
	}
	if cfg.Baro.Oversampling != 2 {
		t.Fatalf("oversampling=%d want 2", cfg.Baro.Oversampling)
	}
	if cfg.Baro.SeaLevelPa != 101325 || cfg.Baro.Address != 0x77 || cfg.Baro.I2CBus != 1 {
		t.Fatalf("baro defaults: %+v", cfg.Baro)
	}
	if cfg.Baro.Tick != time.Millisecond || cfg.Baro.ConversionTimeout != 100*time.Millisecond || cfg.Baro.MaxRetries != 3 {
		t.Fatalf("baro timing defaults: %+v", cfg.Baro)
	}
	if cfg.Record.Separator != "|" || cfg.Record.Path == "" {
		t.Fatalf("record defaults: %+v", cfg.Record)
	}
	if cfg.MQTT.Enable || cfg.MQTT.Topic != "gpslogger/record" || cfg.MQTT.QueueSize != 64 {
		t.Fatalf("mqtt defaults: %+v", cfg.MQTT)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Fatalf("log defaults: %+v", cfg.Log)
	}
}

func TestLoad_ExplicitZeroOversamplingKept(t *testing.T) {
	path := writeTempConfig(t, "baro:\n  eoc_line: GPIO17\n  oversampling: 0\n  address: 0x76\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Baro.Oversampling != 0 {
		t.Fatalf("oversampling=%d want 0", cfg.Baro.Oversampling)
	}
	if cfg.Baro.Address != 0x76 {
		t.Fatalf("address=0x%x want 0x76", cfg.Baro.Address)
	}
}

func TestLoad_ExplicitZeroI2CBusKept(t *testing.T) {
	path := writeTempConfig(t, "baro:\n  eoc_line: '17'\n  i2c_bus: 0\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Baro.I2CBus != 0 {
		t.Fatalf("i2c_bus=%d want 0", cfg.Baro.I2CBus)
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "bad source",
			yaml: "gps:\n  source: usb\nbaro:\n  disable: true\n",
			want: `gps.source must be serial or gpsd (got "usb")`,
		},
		{
			name: "bad rate",
			yaml: "gps:\n  update_rate_hz: 2\nbaro:\n  disable: true\n",
			want: "gps.update_rate_hz must be 1, 5 or 10",
		},
		{
			name: "configure gpsd",
			yaml: "gps:\n  source: gpsd\n  configure_receiver: true\nbaro:\n  disable: true\n",
			want: "gps.configure_receiver requires gps.source=serial",
		},
		{
			name: "tiny frame",
			yaml: "gps:\n  frame_capacity: 8\nbaro:\n  disable: true\n",
			want: "gps.frame_capacity must be >= 16",
		},
		{
			name: "oversampling",
			yaml: "baro:\n  eoc_line: '17'\n  oversampling: 4\n",
			want: "baro.oversampling must be 0..3",
		},
		{
			name: "address",
			yaml: "baro:\n  eoc_line: '17'\n  address: 0x1FF\n",
			want: "baro.address must be a 7-bit address",
		},
		{
			name: "mqtt broker",
			yaml: "baro:\n  disable: true\nmqtt:\n  enable: true\n",
			want: "mqtt.broker is required when mqtt.enable is true",
		},
		{
			name: "mqtt qos",
			yaml: "baro:\n  disable: true\nmqtt:\n  qos: 3\n",
			want: "mqtt.qos must be 0, 1 or 2",
		},
		{
			name: "log format",
			yaml: "baro:\n  disable: true\nlog:\n  format: xml\n",
			want: "log.format must be text or json",
		},
		{
			name: "log level",
			yaml: "baro:\n  disable: true\nlog:\n  level: loud\n",
			want: `log.level "loud" is not a logrus level`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeTempConfig(t, tc.yaml))
			requireErrEq(t, err, tc.want)
		})
	}
}

func TestDefaultAndValidate_InCodeConfig(t *testing.T) {
	cfg := Config{Baro: BaroConfig{EOCLine: "17"}, Log: LogConfig{Level: " DEBUG ", Format: "JSON"}}
	if err := DefaultAndValidate(&cfg); err != nil {
		t.Fatalf("DefaultAndValidate() error: %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Fatalf("log=%+v", cfg.Log)
	}
	if err := DefaultAndValidate(nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error")
	}
}
