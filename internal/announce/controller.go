// Package announce sequences the voice feedback of the NetraMarg stick:
// the welcome message, the three feature triggers with their delayed
// follow-ups, the vision busy flag and the voice on/off toggle.
package announce

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/neelchudasama51-ui/netramarg/internal/clock"
	"github.com/neelchudasama51-ui/netramarg/internal/notify"
)

// Controller errors.
var (
	ErrNilClock       = errors.New("clock cannot be nil")
	ErrNilSpeaker     = errors.New("speaker cannot be nil")
	ErrNilNotifier    = errors.New("notifier cannot be nil")
	ErrInvalidOptions = errors.New("invalid controller options")
)

const (
	taskWelcome    = "welcome"
	taskVision     = "vision"
	taskNavigation = "navigation"
	taskSOS        = "sos"
)

// Options tunes the controller.
type Options struct {
	WelcomeDelay    time.Duration
	VisionDelay     time.Duration
	NavigationDelay time.Duration
	SOSDelay        time.Duration

	// Contacts is the number of emergency contacts reported by the SOS
	// follow-up.
	Contacts int

	// VoiceEnabled is the initial state of the voice toggle.
	VoiceEnabled bool

	// CancelSuperseded makes a repeated navigation or SOS trigger cancel
	// that feature's follow-up if it is still pending.
	CancelSuperseded bool

	Phrases Phrases
	Logger  *log.Logger
}

// DefaultOptions returns the stock timings and phrases.
func DefaultOptions() Options {
	return Options{
		WelcomeDelay:    1000 * time.Millisecond,
		VisionDelay:     3000 * time.Millisecond,
		NavigationDelay: 2000 * time.Millisecond,
		SOSDelay:        1500 * time.Millisecond,
		Contacts:        3,
		VoiceEnabled:    true,
		Phrases:         DefaultPhrases(),
	}
}

// Validate checks the options for consistency.
func (o Options) Validate() error {
	delays := map[string]time.Duration{
		"welcome":    o.WelcomeDelay,
		"vision":     o.VisionDelay,
		"navigation": o.NavigationDelay,
		"sos":        o.SOSDelay,
	}
	for name, d := range delays {
		if d < 0 {
			return fmt.Errorf("%w: %s delay must not be negative, got %v", ErrInvalidOptions, name, d)
		}
	}
	if o.Contacts < 0 {
		return fmt.Errorf("%w: contacts must not be negative, got %d", ErrInvalidOptions, o.Contacts)
	}
	if err := o.Phrases.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	return nil
}

type listener struct {
	id uint64
	fn func(Event)
}

// Controller owns the voice and busy flags and every pending task.
//
// All operations and timer callbacks are serialised on one mutex, so the
// controller behaves as a single logical thread. Speaker, notifier and
// event listeners are invoked with that mutex held; they must not block
// and must not call back into the controller.
type Controller struct {
	mu sync.Mutex

	clock    clock.Clock
	speaker  Speaker
	notifier notify.Notifier
	phrases  Phrases
	opts     Options
	log      *log.Logger

	voiceEnabled bool
	busy         bool
	closed       bool

	welcome *Task
	tasks   map[uint64]*Task
	latest  map[string]uint64
	nextID  uint64

	listeners    []listener
	nextListener uint64
}

// NewController creates a controller. Nothing is scheduled until
// Initialize is called.
func NewController(clk clock.Clock, speaker Speaker, notifier notify.Notifier, opts Options) (*Controller, error) {
	if clk == nil {
		return nil, ErrNilClock
	}
	if speaker == nil {
		return nil, ErrNilSpeaker
	}
	if notifier == nil {
		return nil, ErrNilNotifier
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Controller{
		clock:        clk,
		speaker:      speaker,
		notifier:     notifier,
		phrases:      opts.Phrases,
		opts:         opts,
		log:          logger.WithPrefix("announce"),
		voiceEnabled: opts.VoiceEnabled,
		tasks:        make(map[uint64]*Task),
		latest:       make(map[string]uint64),
	}, nil
}

// Initialize schedules the welcome announcement. Repeated calls return the
// task created by the first one. It returns nil once the controller is
// closed.
func (c *Controller) Initialize() *Task {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	if c.welcome != nil {
		return c.welcome
	}

	c.welcome = c.schedule(taskWelcome, c.opts.WelcomeDelay, func() {
		c.announce(c.phrases.Welcome)
	})
	c.log.Debug("welcome scheduled", "delay", c.opts.WelcomeDelay)
	return c.welcome
}

// ToggleVoice flips the voice flag and returns the new value. Turning
// voice on speaks a confirmation; turning it off is silent and leaves any
// utterance already in progress alone.
func (c *Controller) ToggleVoice() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return c.voiceEnabled
	}

	c.voiceEnabled = !c.voiceEnabled
	c.log.Info("voice toggled", "enabled", c.voiceEnabled)
	c.emitState()

	if c.voiceEnabled {
		c.announce(c.phrases.VoiceEnabled)
	}
	return c.voiceEnabled
}

// TriggerVision starts a simulated vision analysis. It returns nil without
// side effects on state if an analysis is already running.
func (c *Controller) TriggerVision() *Task {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	if c.busy {
		c.log.Debug("vision trigger rejected", "reason", "busy")
		c.emitFeature(EventRejected, FeatureVision)
		return nil
	}

	c.busy = true
	c.emitFeature(EventTrigger, FeatureVision)
	c.emitState()
	c.announce(c.phrases.VisionProcessing)
	c.toast(notify.LevelInfo, c.phrases.ToastVisionStarted)

	return c.schedule(taskVision, c.opts.VisionDelay, func() {
		c.announce(c.phrases.VisionResult)
		c.toast(notify.LevelSuccess, c.phrases.ToastVisionDone)
		c.busy = false
		c.emitState()
	})
}

// TriggerNavigation activates simulated navigation assistance.
func (c *Controller) TriggerNavigation() *Task {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.emitFeature(EventTrigger, FeatureNavigation)
	c.announce(c.phrases.NavigationActivated)
	c.toast(notify.LevelSuccess, c.phrases.ToastNavigationDone)

	return c.schedule(taskNavigation, c.opts.NavigationDelay, func() {
		c.announce(c.phrases.NavigationGPS)
	})
}

// TriggerSOS raises a simulated emergency alert.
func (c *Controller) TriggerSOS() *Task {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.emitFeature(EventTrigger, FeatureSOS)
	c.announce(c.phrases.SOSActivated)
	c.toast(notify.LevelError, c.phrases.ToastSOSSent)

	return c.schedule(taskSOS, c.opts.SOSDelay, func() {
		c.announce(c.phrases.SOSFollowUp(c.opts.Contacts))
	})
}

// Trigger dispatches to the trigger for f.
func (c *Controller) Trigger(f Feature) *Task {
	switch f {
	case FeatureVision:
		return c.TriggerVision()
	case FeatureNavigation:
		return c.TriggerNavigation()
	case FeatureSOS:
		return c.TriggerSOS()
	default:
		return nil
	}
}

// Announce speaks text, interrupting whatever is being said, if voice is
// enabled.
func (c *Controller) Announce(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.announce(text)
}

// Focus speaks the hint describing the control for f.
func (c *Controller) Focus(f Feature) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if hint := c.phrases.Hint(f); hint != "" {
		c.announce(hint)
	}
}

// State returns a snapshot of the controller flags.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Phrases returns the catalogue in use.
func (c *Controller) Phrases() Phrases {
	return c.phrases
}

// Contacts returns the emergency contact count.
func (c *Controller) Contacts() int {
	return c.opts.Contacts
}

// Subscribe registers fn for every subsequent event and returns a function
// that removes it. fn runs with the controller lock held.
func (c *Controller) Subscribe(fn func(Event)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextListener++
	id := c.nextListener
	c.listeners = append(c.listeners, listener{id: id, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, l := range c.listeners {
			if l.id == id {
				c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

// Close cancels the welcome timer and every pending follow-up. Later
// operations are no-ops. Close is idempotent and always returns nil.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	cancelled := 0
	for _, t := range c.tasks {
		if c.cancelLocked(t) {
			cancelled++
		}
	}
	c.closed = true
	c.log.Debug("controller closed", "cancelled", cancelled)
	c.emitState()
	c.listeners = nil
	return nil
}

// schedule must be called with c.mu held.
func (c *Controller) schedule(name string, d time.Duration, fn func()) *Task {
	if c.opts.CancelSuperseded && name != taskWelcome && name != taskVision {
		if prev, ok := c.tasks[c.latest[name]]; ok {
			c.log.Debug("cancelling superseded follow-up", "task", name)
			c.cancelLocked(prev)
		}
	}

	c.nextID++
	t := newTask(c, c.nextID, name, c.clock.Now().Add(d))
	c.tasks[t.id] = t
	c.latest[name] = t.id

	t.timer = c.clock.AfterFunc(d, func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if c.closed {
			return
		}
		if _, ok := c.tasks[t.id]; !ok {
			return
		}
		c.forget(t)
		fn()
		t.finish(TaskCompleted)
	})
	return t
}

// cancelLocked must be called with c.mu held.
func (c *Controller) cancelLocked(t *Task) bool {
	if _, ok := c.tasks[t.id]; !ok {
		return false
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	c.forget(t)
	if t.Name == taskVision {
		c.busy = false
		if !c.closed {
			c.emitState()
		}
	}
	return t.finish(TaskCancelled)
}

func (c *Controller) forget(t *Task) {
	delete(c.tasks, t.id)
	if c.latest[t.Name] == t.id {
		delete(c.latest, t.Name)
	}
}

func (c *Controller) announce(text string) {
	spoken := c.voiceEnabled && strings.TrimSpace(text) != ""
	if spoken {
		c.speaker.Speak(text)
	}
	c.log.Debug("announce", "spoken", spoken, "text", text)
	c.emit(Event{Kind: EventAnnounce, Text: text, Spoken: spoken})
}

func (c *Controller) toast(level notify.Level, text string) {
	t := notify.New(level, text, c.clock.Now())
	c.notifier.Notify(t)
	c.emit(Event{Kind: EventToast, Text: text, Toast: &t})
}

func (c *Controller) emitState() {
	c.emit(Event{Kind: EventState})
}

func (c *Controller) emitFeature(kind EventKind, f Feature) {
	c.emit(Event{Kind: kind, Feature: &f})
}

func (c *Controller) emit(e Event) {
	e.Time = c.clock.Now()
	e.State = c.stateLocked()
	for _, l := range c.listeners {
		l.fn(e)
	}
}

func (c *Controller) stateLocked() State {
	return State{
		VoiceEnabled: c.voiceEnabled,
		Busy:         c.busy,
		Pending:      len(c.tasks),
		Closed:       c.closed,
	}
}
