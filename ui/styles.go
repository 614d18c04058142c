package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/neelchudasama51-ui/netramarg/internal/announce"
	"github.com/neelchudasama51-ui/netramarg/internal/notify"
)

const cardWidth = 24

var (
	mintGreen = lipgloss.AdaptiveColor{Light: "#89F0CB", Dark: "#89F0CB"}
	darkGreen = lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#1C8760"}
	blue      = lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#60A5FA"}
	red       = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#F87171"}
	gray      = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}
	faint     = lipgloss.AdaptiveColor{Light: "#C8C8C8", Dark: "#3A3A3A"}

	statusBarBg = lipgloss.AdaptiveColor{Light: "#E6E6E6", Dark: "#242424"}

	logoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ECFD65")).
			Background(darkGreen).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(gray).
			MarginBottom(1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(faint).
			Padding(1, 2).
			Width(cardWidth).
			Align(lipgloss.Center)

	cardTitleStyle = lipgloss.NewStyle().Bold(true)

	cardNoteStyle = lipgloss.NewStyle().Foreground(gray)

	disabledStyle = lipgloss.NewStyle().Foreground(faint)

	captionStyle = lipgloss.NewStyle().
			Foreground(gray).
			Italic(true).
			MarginTop(1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(gray).
			Background(statusBarBg)

	voiceOnStyle = lipgloss.NewStyle().
			Foreground(mintGreen).
			Background(statusBarBg).
			Bold(true)

	voiceOffStyle = lipgloss.NewStyle().
			Foreground(red).
			Background(statusBarBg).
			Bold(true)

	toastBaseStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF"))

	helpViewStyle = lipgloss.NewStyle().
			Foreground(gray)
)

func accent(f announce.Feature) lipgloss.AdaptiveColor {
	switch f {
	case announce.FeatureVision:
		return blue
	case announce.FeatureNavigation:
		return darkGreen
	default:
		return red
	}
}

func toastStyle(l notify.Level) lipgloss.Style {
	switch l {
	case notify.LevelSuccess:
		return toastBaseStyle.Background(darkGreen)
	case notify.LevelError:
		return toastBaseStyle.Background(red)
	default:
		return toastBaseStyle.Background(blue)
	}
}
