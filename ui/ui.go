// Package ui provides the terminal interface for the NetraMarg stick.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
	te "github.com/muesli/termenv"
	"github.com/neelchudasama51-ui/netramarg/internal/announce"
	"github.com/neelchudasama51-ui/netramarg/internal/notify"
)

const (
	statusMessageTimeout = time.Second * 3 // how long toasts and status notes stay up
	ellipsis             = "…"
)

// Controller is the part of announce.Controller the interface drives.
type Controller interface {
	Initialize() *announce.Task
	ToggleVoice() bool
	Trigger(announce.Feature) *announce.Task
	Focus(announce.Feature)
	State() announce.State
	Subscribe(func(announce.Event)) func()
	Close() error
}

// NewProgram returns a new Tea program driving ctrl.
func NewProgram(cfg Config, ctrl Controller) *tea.Program {
	log.Debug("starting ui", "style", cfg.GlamourStyle, "device", cfg.DeviceName)

	var opts []tea.ProgramOption
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	return tea.NewProgram(newModel(cfg, ctrl), opts...)
}

type model struct {
	cfg    Config
	ctrl   Controller
	events *bridge

	width  int
	height int

	focus    int
	state    announce.State
	spinner  spinner.Model
	spinning bool
	help     help.Model

	showHelp     bool
	helpRendered string

	caption string
	spoken  bool

	toast    *notify.Toast
	toastSeq int

	statusMessage string
	statusSeq     int

	copy func(string) error
}

func newModel(cfg Config, ctrl Controller) model {
	cfg = cfg.withDefaults()
	cfg.GlamourStyle = glamourStyle(cfg.GlamourStyle)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(blue)

	return model{
		cfg:     cfg,
		ctrl:    ctrl,
		events:  newBridge(ctrl, cfg.EventBuffer),
		state:   ctrl.State(),
		spinner: sp,
		help:    help.New(),
		copy:    copyToClipboard,
	}
}

func (m model) Init() tea.Cmd {
	ctrl := m.ctrl
	return tea.Batch(
		waitForEvent(m.events),
		func() tea.Msg {
			ctrl.Initialize()
			return controllerInitMsg{}
		},
	)
}

func (m model) focused() announce.Feature {
	return announce.Features[m.focus]
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.helpRendered = ""
		if m.showHelp {
			cmds = append(cmds, renderHelp(m.cfg.GlamourStyle, m.helpWidth()))
		}

	case tea.KeyMsg:
		return m.handleKey(msg)

	case eventMsg:
		cmds = append(cmds, m.handleEvent(announce.Event(msg)), waitForEvent(m.events))
		if m.state.Closed {
			m.events.close()
			return m, tea.Quit
		}

	case eventsClosedMsg:
		return m, nil

	case spinner.TickMsg:
		if !m.state.Busy {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case helpRenderedMsg:
		m.helpRendered = string(msg)

	case copiedMsg:
		cmds = append(cmds, m.showStatusMessage("Copied: "+msg.text))

	case toastTimeoutMsg:
		if msg.seq == m.toastSeq {
			m.toast = nil
		}

	case statusTimeoutMsg:
		if msg.seq == m.statusSeq {
			m.statusMessage = ""
		}

	case errMsg:
		log.Error("ui error", "error", msg.err)
		cmds = append(cmds, m.showStatusMessage(msg.Error()))
	}

	return m, tea.Batch(cmds...)
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, m.quit()

	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp
		if m.showHelp && m.helpRendered == "" {
			return m, renderHelp(m.cfg.GlamourStyle, m.helpWidth())
		}
		return m, nil
	}

	// The help page swallows everything except closing it.
	if m.showHelp {
		if msg.String() == "esc" {
			m.showHelp = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Next):
		m.focus = (m.focus + 1) % len(announce.Features)
		m.ctrl.Focus(m.focused())

	case key.Matches(msg, keys.Prev):
		m.focus = (m.focus + len(announce.Features) - 1) % len(announce.Features)
		m.ctrl.Focus(m.focused())

	case key.Matches(msg, keys.Trigger):
		f := m.focused()
		if f == announce.FeatureVision && m.state.Busy {
			return m, m.showStatusMessage("AI Vision is still processing")
		}
		m.ctrl.Trigger(f)

	case key.Matches(msg, keys.Voice):
		m.state.VoiceEnabled = m.ctrl.ToggleVoice()

	case key.Matches(msg, keys.Copy):
		if m.caption == "" {
			return m, m.showStatusMessage("Nothing to copy yet")
		}
		return m, copyCmd(m.copy, m.caption)
	}
	return m, nil
}

func (m *model) handleEvent(e announce.Event) tea.Cmd {
	wasBusy := m.state.Busy
	m.state = e.State

	var cmds []tea.Cmd
	if m.state.Busy && !wasBusy && !m.spinning {
		m.spinning = true
		cmds = append(cmds, m.spinner.Tick)
	}

	switch e.Kind {
	case announce.EventAnnounce:
		m.caption = e.Text
		m.spoken = e.Spoken
	case announce.EventToast:
		if e.Toast != nil {
			cmds = append(cmds, m.showToast(*e.Toast))
		}
	case announce.EventRejected:
		cmds = append(cmds, m.showStatusMessage("AI Vision is still processing"))
	}
	return tea.Batch(cmds...)
}

func (m *model) showToast(t notify.Toast) tea.Cmd {
	m.toastSeq++
	m.toast = &t
	seq := m.toastSeq
	return tea.Tick(m.cfg.ToastTimeout, func(time.Time) tea.Msg {
		return toastTimeoutMsg{seq: seq}
	})
}

func (m *model) showStatusMessage(s string) tea.Cmd {
	m.statusSeq++
	m.statusMessage = s
	seq := m.statusSeq
	return tea.Tick(m.cfg.ToastTimeout, func(time.Time) tea.Msg {
		return statusTimeoutMsg{seq: seq}
	})
}

func (m model) quit() tea.Cmd {
	m.events.close()
	if err := m.ctrl.Close(); err != nil {
		log.Warn("closing controller", "error", err)
	}
	return tea.Quit
}

func (m model) helpWidth() int {
	w := m.width
	if m.cfg.GlamourMaxWidth > 0 && (w == 0 || int(m.cfg.GlamourMaxWidth) < w) { //nolint:gosec
		w = int(m.cfg.GlamourMaxWidth) //nolint:gosec
	}
	if w == 0 {
		w = 80
	}
	return w
}

func copyCmd(copyFn func(string) error, text string) tea.Cmd {
	return func() tea.Msg {
		if err := copyFn(text); err != nil {
			return errMsg{fmt.Errorf("unable to copy: %w", err)}
		}
		return copiedMsg{text: text}
	}
}

func copyToClipboard(s string) error {
	// Copy using OSC 52
	te.Copy(s)
	// Copy using native system clipboard
	_ = clipboard.WriteAll(s)
	return nil
}

// VIEW

func (m model) View() string {
	if m.showHelp {
		help := m.helpRendered
		if help == "" {
			help = "\n  Loading help" + ellipsis
		}
		return help + "\n" + m.statusBarView()
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")
	b.WriteString(m.toastView())
	b.WriteString("\n")
	b.WriteString(m.cardsView())
	b.WriteString("\n")
	b.WriteString(m.captionView())
	b.WriteString("\n\n")
	b.WriteString(m.help.View(keys))
	b.WriteString("\n")
	b.WriteString(m.statusBarView())
	return b.String()
}

func (m model) headerView() string {
	return logoStyle.Render(" NetraMarg ") + headerStyle.Render("  smart navigation companion")
}

func (m model) toastView() string {
	if m.toast == nil {
		return ""
	}
	return toastStyle(m.toast.Level).Render(m.toast.Text)
}

func (m model) cardsView() string {
	cards := make([]string, len(announce.Features))
	for i, f := range announce.Features {
		cards[i] = m.cardView(f, i == m.focus)
	}
	// Three cards side by side need roughly 3*(cardWidth+2) columns.
	if m.width > 0 && m.width < 3*(cardWidth+2) {
		return lipgloss.JoinVertical(lipgloss.Left, cards...)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func (m model) cardView(f announce.Feature, focused bool) string {
	style := cardStyle
	title := cardTitleStyle.Foreground(accent(f)).Render(f.Title())
	note := cardNoteStyle.Render(cardNote(f))

	disabled := f == announce.FeatureVision && m.state.Busy
	if disabled {
		title = disabledStyle.Render(f.Title())
		note = m.spinner.View() + " Processing..."
	}
	if focused {
		style = style.BorderForeground(accent(f)).BorderStyle(lipgloss.ThickBorder())
	}
	return style.Render(title + "\n\n" + note)
}

func cardNote(f announce.Feature) string {
	switch f {
	case announce.FeatureVision:
		return "Describe surroundings"
	case announce.FeatureNavigation:
		return "GPS directions"
	default:
		return "Alert your contacts"
	}
}

func (m model) captionView() string {
	if m.caption == "" {
		return ""
	}
	prefix := "♪ "
	if !m.spoken {
		prefix = "(muted) "
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	text := prefix + m.caption
	if runewidth.StringWidth(text) > 3*width {
		text = runewidth.Truncate(text, 3*width, ellipsis)
	}
	return captionStyle.Render(wordwrap.String(text, width-2))
}

func (m model) statusBarView() string {
	voice := voiceOffStyle.Render(" Voice OFF ")
	if m.state.VoiceEnabled {
		voice = voiceOnStyle.Render(" Voice ON ")
	}
	device := statusBarStyle.Render(" " + m.cfg.DeviceName + " connected •")

	width := m.width
	if width <= 0 {
		width = 80
	}
	avail := max(0, width-lipgloss.Width(device)-lipgloss.Width(voice))

	var note string
	if m.statusMessage != "" {
		note = truncate.StringWithTail(" "+m.statusMessage, uint(avail), ellipsis) //nolint:gosec
	}
	padding := strings.Repeat(" ", max(0, avail-lipgloss.Width(note)))

	return device + voice + statusBarStyle.Render(note+padding)
}
