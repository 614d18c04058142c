package engines

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/neelchudasama51-ui/netramarg/internal/speech"
)

// Engine names accepted by New.
const (
	NameAuto   = "auto"
	NameEspeak = "espeak"
	NamePiper  = "piper"
	NameGTTS   = "gtts"
	NameMock   = "mock"
)

// Names lists the engines in the order auto tries them, followed by mock.
var Names = []string{NameAuto, NamePiper, NameEspeak, NameGTTS, NameMock}

// Config selects and configures an engine.
type Config struct {
	Name string

	EspeakVoice string

	PiperModel   string
	PiperSpeaker string

	GTTSLanguage          string
	GTTSTLD               string
	GTTSRequestsPerMinute int

	MockDelay time.Duration
	Timeout   time.Duration
}

// New builds the configured engine and checks that it is usable. With
// NameAuto the first usable engine wins; a usable Piper voice is backed by
// espeak-ng when that is installed too.
func New(cfg Config) (speech.Engine, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Name))
	if name == "" {
		name = NameAuto
	}

	if name == NameAuto {
		return auto(cfg)
	}

	e, err := build(name, cfg)
	if err != nil {
		return nil, err
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

func build(name string, cfg Config) (speech.Engine, error) {
	switch name {
	case NameEspeak:
		return NewEspeakEngine(EspeakConfig{Voice: cfg.EspeakVoice, Timeout: cfg.Timeout}), nil
	case NamePiper:
		return NewPiperEngine(PiperConfig{
			ModelPath: cfg.PiperModel,
			Speaker:   cfg.PiperSpeaker,
			Timeout:   cfg.Timeout,
		})
	case NameGTTS:
		return NewGTTSEngine(GTTSConfig{
			Language:          cfg.GTTSLanguage,
			TLD:               cfg.GTTSTLD,
			RequestsPerMinute: cfg.GTTSRequestsPerMinute,
			Timeout:           cfg.Timeout,
		}), nil
	case NameMock:
		return NewMockEngine(cfg.MockDelay), nil
	default:
		return nil, fmt.Errorf("unknown engine %q (valid: %s)", name, strings.Join(Names, ", "))
	}
}

func auto(cfg Config) (speech.Engine, error) {
	var usable []speech.Engine
	for _, name := range []string{NamePiper, NameEspeak, NameGTTS} {
		if name == NamePiper && cfg.PiperModel == "" {
			continue
		}
		e, err := build(name, cfg)
		if err != nil {
			log.Debug("engine not buildable", "engine", name, "err", err)
			continue
		}
		if err := e.Validate(); err != nil {
			log.Debug("engine not usable", "engine", name, "err", err)
			continue
		}
		usable = append(usable, e)
	}

	switch len(usable) {
	case 0:
		return nil, fmt.Errorf("%w: none of piper, espeak-ng or gtts-cli is installed", speech.ErrEngineUnavailable)
	case 1:
		return usable[0], nil
	default:
		for _, e := range usable[2:] {
			_ = e.Close()
		}
		log.Debug("engine selected", "primary", usable[0].Info().Name, "fallback", usable[1].Info().Name)
		return NewFallbackEngine(usable[0], usable[1], 3), nil
	}
}
