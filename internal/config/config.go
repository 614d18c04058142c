// Package config maps the netramarg.yml file, NETRAMARG_* environment
// variables and command line flags onto typed settings for every
// component.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/go-homedir"
	"github.com/neelchudasama51-ui/netramarg/internal/announce"
	"github.com/neelchudasama51-ui/netramarg/internal/audio"
	"github.com/neelchudasama51-ui/netramarg/internal/cache"
	"github.com/neelchudasama51-ui/netramarg/internal/speech"
	"github.com/neelchudasama51-ui/netramarg/internal/speech/engines"
	"github.com/spf13/viper"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete application configuration.
type Config struct {
	VoiceEnabled     bool   `mapstructure:"voice_enabled"`
	Contacts         int    `mapstructure:"contacts"`
	CancelSuperseded bool   `mapstructure:"cancel_superseded"`
	PhrasesFile      string `mapstructure:"phrases_file"`
	Debug            bool   `mapstructure:"debug"`

	Delays Delays `mapstructure:"delays"`
	Speech Speech `mapstructure:"speech"`
	Audio  Audio  `mapstructure:"audio"`
	Cache  Cache  `mapstructure:"cache"`
	Server Server `mapstructure:"server"`
}

// Delays are the announcement timings.
type Delays struct {
	Welcome    time.Duration `mapstructure:"welcome"`
	Vision     time.Duration `mapstructure:"vision"`
	Navigation time.Duration `mapstructure:"navigation"`
	SOS        time.Duration `mapstructure:"sos"`
}

// Speech selects and tunes the synthesis engine.
type Speech struct {
	Engine  string        `mapstructure:"engine"`
	Rate    float64       `mapstructure:"rate"`
	Volume  float64       `mapstructure:"volume"`
	Timeout time.Duration `mapstructure:"timeout"`
	Prewarm bool          `mapstructure:"prewarm"`

	Espeak struct {
		Voice string `mapstructure:"voice"`
	} `mapstructure:"espeak"`
	Piper struct {
		Model   string `mapstructure:"model"`
		Speaker string `mapstructure:"speaker"`
	} `mapstructure:"piper"`
	GTTS struct {
		Language          string `mapstructure:"language"`
		TLD               string `mapstructure:"tld"`
		RequestsPerMinute int    `mapstructure:"requests_per_minute"`
	} `mapstructure:"gtts"`
	Mock struct {
		Delay time.Duration `mapstructure:"delay"`
	} `mapstructure:"mock"`
}

// Audio configures the output device.
type Audio struct {
	// Mute replaces the sound card with a simulated player.
	Mute       bool `mapstructure:"mute"`
	SampleRate int  `mapstructure:"sample_rate"`
	BufferSize int  `mapstructure:"buffer_size"`
}

// Cache configures the synthesised audio cache.
type Cache struct {
	Enabled          bool          `mapstructure:"enabled"`
	Dir              string        `mapstructure:"dir"`
	MemorySize       int64         `mapstructure:"memory_size"`
	DiskSize         int64         `mapstructure:"disk_size"`
	CompressionLevel int           `mapstructure:"compression_level"`
	TTL              time.Duration `mapstructure:"ttl"`
}

// Server configures the HTTP surface.
type Server struct {
	Addr         string        `mapstructure:"addr"`
	ToastHistory int           `mapstructure:"toast_history"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
}

// Default returns the stock configuration. cacheDir is used for the disk
// cache when no directory is configured.
func Default(cacheDir string) Config {
	opts := announce.DefaultOptions()
	sp := speech.DefaultConfig()
	cc := cache.DefaultConfig(cacheDir)
	ac := audio.DefaultPlayerConfig()

	cfg := Config{
		VoiceEnabled: opts.VoiceEnabled,
		Contacts:     opts.Contacts,
		Delays: Delays{
			Welcome:    opts.WelcomeDelay,
			Vision:     opts.VisionDelay,
			Navigation: opts.NavigationDelay,
			SOS:        opts.SOSDelay,
		},
		Speech: Speech{
			Engine:  engines.NameAuto,
			Rate:    sp.Rate,
			Volume:  sp.Volume,
			Timeout: sp.Timeout,
			Prewarm: true,
		},
		Audio: Audio{
			SampleRate: ac.SampleRate,
			BufferSize: ac.BufferSize,
		},
		Cache: Cache{
			Enabled:          true,
			Dir:              cc.Dir,
			MemorySize:       cc.MemoryCapacity,
			DiskSize:         cc.DiskCapacity,
			CompressionLevel: cc.CompressionLevel,
			TTL:              cc.TTL,
		},
		Server: Server{
			Addr:         "127.0.0.1:8787",
			ToastHistory: 50,
			ReadTimeout:  10 * time.Second,
		},
	}
	cfg.Speech.Espeak.Voice = "en"
	cfg.Speech.GTTS.Language = "en"
	cfg.Speech.GTTS.TLD = "co.in"
	cfg.Speech.GTTS.RequestsPerMinute = 50
	return cfg
}

// SetDefaults registers every key of Default(cacheDir) with v so that
// environment variables and flags bound to nested keys are honoured.
func SetDefaults(v *viper.Viper, cacheDir string) {
	d := Default(cacheDir)

	v.SetDefault("voice_enabled", d.VoiceEnabled)
	v.SetDefault("contacts", d.Contacts)
	v.SetDefault("cancel_superseded", d.CancelSuperseded)
	v.SetDefault("phrases_file", d.PhrasesFile)
	v.SetDefault("debug", d.Debug)

	v.SetDefault("delays.welcome", d.Delays.Welcome)
	v.SetDefault("delays.vision", d.Delays.Vision)
	v.SetDefault("delays.navigation", d.Delays.Navigation)
	v.SetDefault("delays.sos", d.Delays.SOS)

	v.SetDefault("speech.engine", d.Speech.Engine)
	v.SetDefault("speech.rate", d.Speech.Rate)
	v.SetDefault("speech.volume", d.Speech.Volume)
	v.SetDefault("speech.timeout", d.Speech.Timeout)
	v.SetDefault("speech.prewarm", d.Speech.Prewarm)
	v.SetDefault("speech.espeak.voice", d.Speech.Espeak.Voice)
	v.SetDefault("speech.piper.model", d.Speech.Piper.Model)
	v.SetDefault("speech.piper.speaker", d.Speech.Piper.Speaker)
	v.SetDefault("speech.gtts.language", d.Speech.GTTS.Language)
	v.SetDefault("speech.gtts.tld", d.Speech.GTTS.TLD)
	v.SetDefault("speech.gtts.requests_per_minute", d.Speech.GTTS.RequestsPerMinute)
	v.SetDefault("speech.mock.delay", d.Speech.Mock.Delay)

	v.SetDefault("audio.mute", d.Audio.Mute)
	v.SetDefault("audio.sample_rate", d.Audio.SampleRate)
	v.SetDefault("audio.buffer_size", d.Audio.BufferSize)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("cache.memory_size", d.Cache.MemorySize)
	v.SetDefault("cache.disk_size", d.Cache.DiskSize)
	v.SetDefault("cache.compression_level", d.Cache.CompressionLevel)
	v.SetDefault("cache.ttl", d.Cache.TTL)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.toast_history", d.Server.ToastHistory)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
}

// Load decodes v into a Config, expands paths and validates the result.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode configuration: %w", err)
	}

	var err error
	if cfg.PhrasesFile, err = expandPath(cfg.PhrasesFile); err != nil {
		return Config{}, err
	}
	if cfg.Cache.Dir, err = expandPath(cfg.Cache.Dir); err != nil {
		return Config{}, err
	}
	if cfg.Speech.Piper.Model, err = expandPath(cfg.Speech.Piper.Model); err != nil {
		return Config{}, err
	}
	cfg.Speech.Engine = strings.ToLower(strings.TrimSpace(cfg.Speech.Engine))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges across the configuration.
func (c Config) Validate() error {
	if err := c.Options().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.SpeechConfig(nil).Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	known := false
	for _, n := range engines.Names {
		if c.Speech.Engine == n {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("%w: unknown speech engine %q (valid: %s)",
			ErrInvalidConfig, c.Speech.Engine, strings.Join(engines.Names, ", "))
	}

	if !c.Audio.Mute {
		if err := c.PlayerConfig().Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	if c.Cache.Enabled {
		if err := c.CacheConfig(nil).Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	if c.Server.ToastHistory <= 0 {
		return fmt.Errorf("%w: server.toast_history must be positive, got %d", ErrInvalidConfig, c.Server.ToastHistory)
	}
	return nil
}

// Options returns the controller options. Phrases come from PhrasesFile
// when set, see LoadPhrases.
func (c Config) Options() announce.Options {
	opts := announce.DefaultOptions()
	opts.WelcomeDelay = c.Delays.Welcome
	opts.VisionDelay = c.Delays.Vision
	opts.NavigationDelay = c.Delays.Navigation
	opts.SOSDelay = c.Delays.SOS
	opts.Contacts = c.Contacts
	opts.VoiceEnabled = c.VoiceEnabled
	opts.CancelSuperseded = c.CancelSuperseded
	return opts
}

// LoadPhrases returns the default phrases, overridden by PhrasesFile.
func (c Config) LoadPhrases() (announce.Phrases, error) {
	if c.PhrasesFile == "" {
		return announce.DefaultPhrases(), nil
	}
	p, err := announce.LoadPhrasesFile(c.PhrasesFile)
	if err != nil {
		return announce.Phrases{}, fmt.Errorf("unable to load phrases from %s: %w", c.PhrasesFile, err)
	}
	return p, nil
}

// SpeechConfig returns the announcer settings.
func (c Config) SpeechConfig(logger *log.Logger) speech.Config {
	return speech.Config{
		Rate:    c.Speech.Rate,
		Volume:  c.Speech.Volume,
		Timeout: c.Speech.Timeout,
		Logger:  logger,
	}
}

// EngineConfig returns the engine selection.
func (c Config) EngineConfig() engines.Config {
	return engines.Config{
		Name:                  c.Speech.Engine,
		EspeakVoice:           c.Speech.Espeak.Voice,
		PiperModel:            c.Speech.Piper.Model,
		PiperSpeaker:          c.Speech.Piper.Speaker,
		GTTSLanguage:          c.Speech.GTTS.Language,
		GTTSTLD:               c.Speech.GTTS.TLD,
		GTTSRequestsPerMinute: c.Speech.GTTS.RequestsPerMinute,
		MockDelay:             c.Speech.Mock.Delay,
		Timeout:               c.Speech.Timeout,
	}
}

// PlayerConfig returns the output device settings.
func (c Config) PlayerConfig() audio.PlayerConfig {
	return audio.PlayerConfig{
		SampleRate: c.Audio.SampleRate,
		BufferSize: c.Audio.BufferSize,
	}
}

// CacheConfig returns the audio cache settings.
func (c Config) CacheConfig(logger *log.Logger) cache.Config {
	cc := cache.DefaultConfig(c.Cache.Dir)
	cc.MemoryCapacity = c.Cache.MemorySize
	cc.DiskCapacity = c.Cache.DiskSize
	cc.CompressionLevel = c.Cache.CompressionLevel
	cc.TTL = c.Cache.TTL
	cc.Logger = logger
	return cc
}

// Watch reloads the configuration whenever the file behind v changes and
// passes every valid result to fn. Invalid edits are logged and skipped.
func Watch(v *viper.Viper, fn func(Config)) {
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := Load(v)
		if err != nil {
			log.Warn("ignoring invalid configuration change", "file", e.Name, "err", err)
			return
		}
		log.Info("configuration reloaded", "file", e.Name)
		fn(cfg)
	})
	v.WatchConfig()
}

func expandPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	expanded, err := homedir.Expand(p)
	if err != nil {
		return "", fmt.Errorf("unable to expand %q: %w", p, err)
	}
	return expanded, nil
}
