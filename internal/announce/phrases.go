package announce

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrEmptyPhrase is returned when a catalogue entry has no text.
	ErrEmptyPhrase = errors.New("phrase is empty")
	// ErrMissingPlaceholder is returned when the SOS follow-up has no
	// place for the contact count.
	ErrMissingPlaceholder = errors.New("phrase is missing " + contactsPlaceholder)
)

// contactsPlaceholder is replaced with the contact count in the SOS
// follow-up.
const contactsPlaceholder = "{contacts}"

// Phrases is the catalogue of fixed texts spoken or shown by the
// controller.
type Phrases struct {
	Welcome             string `yaml:"welcome"`
	VoiceEnabled        string `yaml:"voice_enabled"`
	VisionProcessing    string `yaml:"vision_processing"`
	VisionResult        string `yaml:"vision_result"`
	NavigationActivated string `yaml:"navigation_activated"`
	NavigationGPS       string `yaml:"navigation_gps"`
	SOSActivated        string `yaml:"sos_activated"`
	SOSSent             string `yaml:"sos_sent"`

	VisionHint     string `yaml:"vision_hint"`
	NavigationHint string `yaml:"navigation_hint"`
	SOSHint        string `yaml:"sos_hint"`

	ToastVisionStarted  string `yaml:"toast_vision_started"`
	ToastVisionDone     string `yaml:"toast_vision_done"`
	ToastNavigationDone string `yaml:"toast_navigation_ready"`
	ToastSOSSent        string `yaml:"toast_sos_sent"`
}

// DefaultPhrases returns the built-in English catalogue.
func DefaultPhrases() Phrases {
	return Phrases{
		Welcome:             "Welcome to NetraMarg. Your smart navigation companion is ready.",
		VoiceEnabled:        "Voice feedback enabled",
		VisionProcessing:    "Processing AI Vision. Please wait while I analyze your surroundings.",
		VisionResult:        "I can see a wide sidewalk ahead with trees on the left side. There's a bench about 3 meters away on your right. The path is clear with no obstacles detected.",
		NavigationActivated: "Navigation assistance activated. Please tell me your destination.",
		NavigationGPS:       "GPS location acquired. Ready to provide turn-by-turn directions.",
		SOSActivated:        "SOS Alert activated. Sending emergency message to your contacts.",
		SOSSent:             "Emergency alert sent successfully to " + contactsPlaceholder + " contacts with your current location.",

		VisionHint:     "AI Vision button. Press to describe your surroundings.",
		NavigationHint: "Navigation assistance button. Press for GPS directions.",
		SOSHint:        "SOS Emergency button. Press to send alert to your contacts.",

		ToastVisionStarted:  "Analyzing surroundings",
		ToastVisionDone:     "AI Vision completed",
		ToastNavigationDone: "Navigation ready",
		ToastSOSSent:        "SOS Alert Sent",
	}
}

// LoadPhrases reads a YAML catalogue from r. Keys missing from the
// document keep their default text.
func LoadPhrases(r io.Reader) (Phrases, error) {
	p := DefaultPhrases()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Phrases{}, fmt.Errorf("unable to parse phrases: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Phrases{}, err
	}
	return p, nil
}

// LoadPhrasesFile is LoadPhrases for a file on disk.
func LoadPhrasesFile(path string) (Phrases, error) {
	f, err := os.Open(path)
	if err != nil {
		return Phrases{}, fmt.Errorf("unable to open phrases file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return LoadPhrases(f)
}

// Validate reports the first empty entry, or an SOS follow-up that would
// not mention the contact count.
func (p Phrases) Validate() error {
	c := p.Catalog()
	for _, k := range p.Keys() {
		if strings.TrimSpace(c[k]) == "" {
			return fmt.Errorf("%s: %w", k, ErrEmptyPhrase)
		}
	}
	if !strings.Contains(p.SOSSent, contactsPlaceholder) {
		return fmt.Errorf("sos_sent: %w", ErrMissingPlaceholder)
	}
	return nil
}

// Catalog returns every phrase keyed by its YAML name.
func (p Phrases) Catalog() map[string]string {
	return map[string]string{
		"welcome":                p.Welcome,
		"voice_enabled":          p.VoiceEnabled,
		"vision_processing":      p.VisionProcessing,
		"vision_result":          p.VisionResult,
		"navigation_activated":   p.NavigationActivated,
		"navigation_gps":         p.NavigationGPS,
		"sos_activated":          p.SOSActivated,
		"sos_sent":               p.SOSSent,
		"vision_hint":            p.VisionHint,
		"navigation_hint":        p.NavigationHint,
		"sos_hint":               p.SOSHint,
		"toast_vision_started":   p.ToastVisionStarted,
		"toast_vision_done":      p.ToastVisionDone,
		"toast_navigation_ready": p.ToastNavigationDone,
		"toast_sos_sent":         p.ToastSOSSent,
	}
}

// Keys returns the catalogue keys in sorted order.
func (p Phrases) Keys() []string {
	c := p.Catalog()
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Spoken returns the phrases that are read aloud, in the order they occur
// during a session. Toast labels are excluded.
func (p Phrases) Spoken(contacts int) []string {
	return []string{
		p.Welcome,
		p.VoiceEnabled,
		p.VisionHint,
		p.NavigationHint,
		p.SOSHint,
		p.VisionProcessing,
		p.VisionResult,
		p.NavigationActivated,
		p.NavigationGPS,
		p.SOSActivated,
		p.SOSFollowUp(contacts),
	}
}

// SOSFollowUp renders the SOS confirmation for the given contact count.
func (p Phrases) SOSFollowUp(contacts int) string {
	return strings.ReplaceAll(p.SOSSent, contactsPlaceholder, strconv.Itoa(contacts))
}

// Hint returns the focus hint for f.
func (p Phrases) Hint(f Feature) string {
	switch f {
	case FeatureVision:
		return p.VisionHint
	case FeatureNavigation:
		return p.NavigationHint
	case FeatureSOS:
		return p.SOSHint
	default:
		return ""
	}
}
