package speech

import "github.com/charmbracelet/log"

// Silent is the speaker used when no engine or audio device is usable.
// Announcements are logged and otherwise dropped.
type Silent struct {
	Log *log.Logger
}

// Speak logs text at debug level.
func (s Silent) Speak(text string) {
	if s.Log != nil {
		s.Log.Debug("speech unavailable, dropping announcement", "text", text)
	}
}
