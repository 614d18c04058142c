package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# speak announcements out loud at startup
voice_enabled: true
# emergency contacts alerted by SOS
contacts: 3
# cancel a pending follow-up when the same feature is triggered again
cancel_superseded: false
# YAML file overriding the announcement phrases; sos_sent must contain {contacts}
# phrases_file: "~/.config/netramarg/phrases.yml"
debug: false

# announcement timings
delays:
  welcome: 1s
  vision: 3s
  navigation: 2s
  sos: 1.5s

speech:
  # auto, piper, espeak, gtts or mock
  engine: "auto"
  rate: 0.8
  volume: 0.8
  timeout: 30s
  # synthesise every phrase into the cache at startup
  prewarm: true
  espeak:
    voice: "en"
  piper:
    # model: "~/.local/share/piper/en_US-lessac-medium.onnx"
    speaker: ""
  gtts:
    language: "en"
    tld: "co.in"
    requests_per_minute: 50

audio:
  # simulate playback instead of using the sound card
  mute: false
  sample_rate: 44100
  buffer_size: 4096

cache:
  enabled: true
  # dir: "~/.cache/netramarg/audio"
  memory_size: 33554432
  disk_size: 268435456
  compression_level: 3
  ttl: 720h

server:
  addr: "127.0.0.1:8787"
  toast_history: 50
  read_timeout: 10s
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the netramarg config file",
	Long:    paragraph(fmt.Sprintf("\n%s the netramarg config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("netramarg config\nnetramarg config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("NetraMarg", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
