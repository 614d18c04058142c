package announce

import (
	"fmt"
	"strings"
	"time"

	"github.com/neelchudasama51-ui/netramarg/internal/notify"
)

// Feature identifies one of the three stick actions.
type Feature int

const (
	FeatureVision Feature = iota
	FeatureNavigation
	FeatureSOS
)

// Features lists the actions in display order.
var Features = []Feature{FeatureVision, FeatureNavigation, FeatureSOS}

// String returns the feature's short name.
func (f Feature) String() string {
	switch f {
	case FeatureVision:
		return "vision"
	case FeatureNavigation:
		return "navigation"
	case FeatureSOS:
		return "sos"
	default:
		return "unknown"
	}
}

// Title returns the label shown on the feature's button.
func (f Feature) Title() string {
	switch f {
	case FeatureVision:
		return "AI Vision"
	case FeatureNavigation:
		return "Navigation"
	case FeatureSOS:
		return "SOS Alert"
	default:
		return "Unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f Feature) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// ParseFeature parses a feature name as produced by String.
func ParseFeature(s string) (Feature, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vision":
		return FeatureVision, nil
	case "navigation", "nav":
		return FeatureNavigation, nil
	case "sos":
		return FeatureSOS, nil
	default:
		return 0, fmt.Errorf("unknown feature %q", s)
	}
}

// Speaker voices announcements. Speak must return promptly; a new call
// supersedes whatever the previous call is still saying.
type Speaker interface {
	Speak(text string)
}

// SpeakerFunc adapts a function to a Speaker.
type SpeakerFunc func(text string)

// Speak calls f(text).
func (f SpeakerFunc) Speak(text string) { f(text) }

// State is a snapshot of the controller flags.
type State struct {
	VoiceEnabled bool `json:"voice_enabled"`
	Busy         bool `json:"busy"`
	Pending      int  `json:"pending"`
	Closed       bool `json:"closed"`
}

// EventKind distinguishes controller events.
type EventKind int

const (
	// EventAnnounce is published for every announcement request, whether
	// or not it was voiced.
	EventAnnounce EventKind = iota
	// EventToast is published for every toast raised.
	EventToast
	// EventState is published whenever voiceEnabled or busy changes.
	EventState
	// EventTrigger is published when a feature trigger is accepted.
	EventTrigger
	// EventRejected is published when a vision trigger is refused while busy.
	EventRejected
)

func (k EventKind) String() string {
	switch k {
	case EventAnnounce:
		return "announce"
	case EventToast:
		return "toast"
	case EventState:
		return "state"
	case EventTrigger:
		return "trigger"
	case EventRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Event describes something the controller did.
type Event struct {
	Kind    EventKind     `json:"kind"`
	Time    time.Time     `json:"time"`
	State   State         `json:"state"`
	Text    string        `json:"text,omitempty"`
	Spoken  bool          `json:"spoken,omitempty"`
	Feature *Feature      `json:"feature,omitempty"`
	Toast   *notify.Toast `json:"toast,omitempty"`
}
