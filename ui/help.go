package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	te "github.com/muesli/termenv"
)

const helpMarkdown = `# NetraMarg

The stick has three buttons. Move between them and the focused button
describes itself out loud.

| Key | Action |
| --- | --- |
| ←/→, tab | move focus |
| enter, space | press the focused button |
| v | turn voice feedback on or off |
| c | copy the last announcement |
| ? | show or hide this page |
| q | quit |

## Buttons

- **AI Vision** describes your surroundings. It takes a few seconds and
  cannot be pressed again until it has finished.
- **Navigation** starts turn-by-turn assistance.
- **SOS Alert** sends your location to your emergency contacts.
`

// glamourStyle resolves "auto" to a concrete style the way the terminal
// background suggests.
func glamourStyle(style string) string {
	if style != styles.AutoStyle {
		return style
	}
	if te.HasDarkBackground() {
		return styles.DarkStyle
	}
	return styles.LightStyle
}

func renderHelp(style string, width int) tea.Cmd {
	return func() tea.Msg {
		s, err := glamourRender(style, width, helpMarkdown)
		if err != nil {
			log.Error("error rendering help with Glamour", "error", err)
			return errMsg{err}
		}
		return helpRenderedMsg(s)
	}
}

func glamourRender(style string, width int, markdown string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("error creating glamour renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("error rendering markdown: %w", err)
	}
	return out, nil
}
