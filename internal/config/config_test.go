package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v, t.TempDir())
	v.SetEnvPrefix("NETRAMARG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func TestDefaultsAreValid(t *testing.T) {
	cfg, err := Load(newViper(t))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Delays.Welcome != time.Second || cfg.Delays.Vision != 3*time.Second ||
		cfg.Delays.Navigation != 2*time.Second || cfg.Delays.SOS != 1500*time.Millisecond {
		t.Errorf("unexpected delays %+v", cfg.Delays)
	}
	if !cfg.VoiceEnabled || cfg.Contacts != 3 || cfg.CancelSuperseded {
		t.Errorf("unexpected controller defaults %+v", cfg)
	}
	if cfg.Speech.Engine != "auto" || cfg.Speech.Rate != 0.8 {
		t.Errorf("unexpected speech defaults %+v", cfg.Speech)
	}
}

func TestLoadFromYAML(t *testing.T) {
	v := newViper(t)
	v.SetConfigType("yaml")
	err := v.ReadConfig(strings.NewReader(`
voice_enabled: false
contacts: 5
cancel_superseded: true
delays:
  sos: 500ms
speech:
  engine: MOCK
  rate: 1.25
  mock:
    delay: 20ms
audio:
  mute: true
  sample_rate: 22050
`))
	if err != nil {
		t.Fatalf("ReadConfig failed: %v", err)
	}

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.VoiceEnabled || cfg.Contacts != 5 || !cfg.CancelSuperseded {
		t.Errorf("top-level keys not applied: %+v", cfg)
	}
	if cfg.Delays.SOS != 500*time.Millisecond || cfg.Delays.Vision != 3*time.Second {
		t.Errorf("delays not merged with defaults: %+v", cfg.Delays)
	}
	if cfg.Speech.Engine != "mock" || cfg.Speech.Mock.Delay != 20*time.Millisecond {
		t.Errorf("speech keys not applied: %+v", cfg.Speech)
	}

	opts := cfg.Options()
	if opts.Contacts != 5 || opts.SOSDelay != 500*time.Millisecond || opts.VoiceEnabled {
		t.Errorf("options not derived from config: %+v", opts)
	}
	if ec := cfg.EngineConfig(); ec.Name != "mock" || ec.MockDelay != 20*time.Millisecond {
		t.Errorf("engine config not derived: %+v", ec)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("NETRAMARG_SPEECH_VOLUME", "0.3")
	t.Setenv("NETRAMARG_CONTACTS", "7")

	cfg, err := Load(newViper(t))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Speech.Volume != 0.3 || cfg.Contacts != 7 {
		t.Errorf("environment not applied: volume=%v contacts=%d", cfg.Speech.Volume, cfg.Contacts)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative delay", func(c *Config) { c.Delays.Vision = -time.Second }},
		{"negative contacts", func(c *Config) { c.Contacts = -1 }},
		{"rate too high", func(c *Config) { c.Speech.Rate = 5 }},
		{"volume too high", func(c *Config) { c.Speech.Volume = 1.1 }},
		{"unknown engine", func(c *Config) { c.Speech.Engine = "festival" }},
		{"bad sample rate", func(c *Config) { c.Audio.SampleRate = 8000 }},
		{"bad compression", func(c *Config) { c.Cache.CompressionLevel = 99 }},
		{"no toast history", func(c *Config) { c.Server.ToastHistory = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default(t.TempDir())
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestMuteSkipsDeviceValidation(t *testing.T) {
	cfg := Default(t.TempDir())
	cfg.Audio.Mute = true
	cfg.Audio.SampleRate = 8000
	if err := cfg.Validate(); err != nil {
		t.Errorf("muted config should not validate the device: %v", err)
	}
}

func TestLoadPhrases(t *testing.T) {
	cfg := Default(t.TempDir())

	p, err := cfg.LoadPhrases()
	if err != nil || p.Welcome == "" {
		t.Fatalf("default phrases: %+v, %v", p, err)
	}

	path := filepath.Join(t.TempDir(), "phrases.yml")
	if err := os.WriteFile(path, []byte("welcome: Namaste\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.PhrasesFile = path
	p, err = cfg.LoadPhrases()
	if err != nil {
		t.Fatalf("LoadPhrases failed: %v", err)
	}
	if p.Welcome != "Namaste" {
		t.Errorf("override not applied: %q", p.Welcome)
	}

	cfg.PhrasesFile = filepath.Join(t.TempDir(), "missing.yml")
	if _, err := cfg.LoadPhrases(); err == nil {
		t.Error("expected error for missing phrases file")
	}
}

func TestExpandPath(t *testing.T) {
	got, err := expandPath("~/voices/amy.onnx")
	if err != nil {
		t.Fatalf("expandPath failed: %v", err)
	}
	if strings.HasPrefix(got, "~") {
		t.Errorf("home not expanded: %q", got)
	}
	if got, _ := expandPath(""); got != "" {
		t.Errorf("empty path should stay empty, got %q", got)
	}
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "netramarg.yml")
	if err := os.WriteFile(path, []byte("speech:\n  rate: 1.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	v := newViper(t)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig failed: %v", err)
	}

	reloaded := make(chan Config, 4)
	Watch(v, func(c Config) { reloaded <- c })

	if err := os.WriteFile(path, []byte("speech:\n  rate: 1.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case c := <-reloaded:
			if c.Speech.Rate == 1.5 {
				return
			}
		case <-deadline:
			t.Fatal("configuration change not observed")
		}
	}
}
