package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/neelchudasama51-ui/netramarg/internal/announce"
	"github.com/neelchudasama51-ui/netramarg/internal/audio"
	"github.com/neelchudasama51-ui/netramarg/internal/cache"
	"github.com/neelchudasama51-ui/netramarg/internal/clock"
	"github.com/neelchudasama51-ui/netramarg/internal/config"
	"github.com/neelchudasama51-ui/netramarg/internal/metrics"
	"github.com/neelchudasama51-ui/netramarg/internal/notify"
	"github.com/neelchudasama51-ui/netramarg/internal/speech"
	"github.com/neelchudasama51-ui/netramarg/internal/speech/engines"
	"github.com/spf13/viper"
)

type outputPlayer interface {
	speech.Player
	Close() error
}

// app owns everything a session needs, wired from the configuration.
type app struct {
	cfg     config.Config
	phrases announce.Phrases
	log     *log.Logger

	engine    speech.Engine
	player    outputPlayer
	cache     *cache.Manager
	announcer *speech.Announcer

	history *notify.History
	metrics *metrics.Metrics
	ctrl    *announce.Controller
	detach  func()
}

func newApp(cfg config.Config, logger *log.Logger) (*app, error) {
	phrases, err := cfg.LoadPhrases()
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	a := &app{
		cfg:     cfg,
		phrases: phrases,
		log:     logger,
		history: notify.NewHistory(cfg.Server.ToastHistory),
		metrics: metrics.New(),
	}

	speaker := a.buildSpeaker()

	opts := cfg.Options()
	opts.Phrases = phrases
	opts.Logger = logger
	notifier := notify.Multi{notify.NewLogger(logger), a.history}

	ctrl, err := announce.NewController(clock.New(), speaker, notifier, opts)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("unable to create controller: %w", err)
	}
	a.ctrl = ctrl
	a.detach = a.metrics.Attach(ctrl)

	if a.announcer != nil {
		a.metrics.RegisterSpeech(a.announcer.Stats)
	}
	if a.cache != nil {
		a.metrics.RegisterCache(a.cache.Stats)
	}
	a.metrics.RegisterToasts(a.history.Len)
	return a, nil
}

// buildSpeaker falls back to a silent speaker whenever a piece of the
// speech path is missing. Announcements must never fail the session.
func (a *app) buildSpeaker() announce.Speaker {
	silent := speech.Silent{Log: a.log}

	engine, err := engines.New(a.cfg.EngineConfig())
	if err != nil {
		a.log.Warn("speech unavailable", "engine", a.cfg.Speech.Engine, "err", err)
		return silent
	}
	a.engine = engine

	a.player = a.buildPlayer(engine)

	var c speech.Cache
	if a.cfg.Cache.Enabled {
		m, err := cache.NewManager(a.cfg.CacheConfig(a.log))
		if err != nil {
			a.log.Warn("audio cache disabled", "err", err)
		} else {
			a.cache = m
			c = m
		}
	}

	an, err := speech.NewAnnouncer(engine, a.player, c, a.cfg.SpeechConfig(a.log))
	if err != nil {
		a.log.Warn("speech unavailable", "err", err)
		return silent
	}
	a.announcer = an
	a.log.Info("speech ready", "engine", engine.Info().Name, "voice", engine.Info().Voice, "rate", an.Rate())
	return an
}

func (a *app) buildPlayer(engine speech.Engine) outputPlayer {
	if a.cfg.Audio.Mute {
		return audio.NewMockPlayer(a.cfg.Audio.SampleRate, audio.MockCallbacks{})
	}
	p, err := audio.NewPlayer(a.cfg.PlayerConfig())
	if err != nil {
		a.log.Warn("audio device unavailable, playing silently", "err", err)
		return audio.NewMockPlayer(a.cfg.Audio.SampleRate, audio.MockCallbacks{
			OnPlay: func(pcm []byte) {
				a.log.Debug("silent playback", "engine", engine.Info().Name, "duration", speech.Duration(pcm, a.cfg.Audio.SampleRate))
			},
		})
	}
	return p
}

// prewarm fills the cache with every spoken phrase in the background.
func (a *app) prewarm(ctx context.Context) {
	if a.announcer == nil || a.cache == nil || !a.cfg.Speech.Prewarm {
		return
	}
	texts := a.phrases.Spoken(a.ctrl.Contacts())
	go func() {
		start := time.Now()
		if err := a.announcer.Prewarm(ctx, texts); err != nil && !errors.Is(err, context.Canceled) {
			a.log.Warn("prewarm stopped", "err", err)
			return
		}
		a.log.Debug("prewarm done", "phrases", len(texts), "took", time.Since(start))
	}()
}

// watch applies speech rate and volume edits from the config file while
// running.
func (a *app) watch(v *viper.Viper) {
	if a.announcer == nil || v.ConfigFileUsed() == "" {
		return
	}
	config.Watch(v, func(c config.Config) {
		if err := a.announcer.SetRate(c.Speech.Rate); err != nil {
			a.log.Warn("unable to apply rate", "err", err)
		}
		if err := a.announcer.SetVolume(c.Speech.Volume); err != nil {
			a.log.Warn("unable to apply volume", "err", err)
		}
	})
}

// waitQuiet blocks until the current utterance has been synthesised and
// played, or ctx ends.
func (a *app) waitQuiet(ctx context.Context) error {
	if a.announcer == nil {
		return nil
	}
	a.announcer.Wait()

	t := time.NewTicker(50 * time.Millisecond)
	defer t.Stop()
	for a.player.IsPlaying() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return nil
}

// Close tears the session down in dependency order.
func (a *app) Close() error {
	var errs []error
	if a.detach != nil {
		a.detach()
	}
	if a.ctrl != nil {
		errs = append(errs, a.ctrl.Close())
	}
	if a.announcer != nil {
		errs = append(errs, a.announcer.Close())
	}
	if a.engine != nil {
		errs = append(errs, a.engine.Close())
	}
	if a.player != nil {
		errs = append(errs, a.player.Close())
	}
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	return errors.Join(errs...)
}
