package ui

import "time"

// Config contains TUI-specific configuration.
type Config struct {
	GlamourStyle    string `env:"GLAMOUR_STYLE" envDefault:"auto"`
	GlamourMaxWidth uint

	// Name shown in the footer for the connected device.
	DeviceName string `env:"NETRAMARG_DEVICE_NAME" envDefault:"Stick"`

	// How long a toast stays in the banner.
	ToastTimeout time.Duration `env:"NETRAMARG_TOAST_TIMEOUT" envDefault:"3s"`

	// Controller events buffered for the UI before new ones are dropped.
	EventBuffer int `env:"NETRAMARG_UI_EVENT_BUFFER" envDefault:"64"`

	// For debugging the UI
	AltScreen bool `env:"NETRAMARG_ALT_SCREEN" envDefault:"true"`
}

func (c Config) withDefaults() Config {
	if c.DeviceName == "" {
		c.DeviceName = "Stick"
	}
	if c.ToastTimeout <= 0 {
		c.ToastTimeout = statusMessageTimeout
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = 64
	}
	if c.GlamourStyle == "" {
		c.GlamourStyle = "auto"
	}
	return c
}
