package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var phraseKeyStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#04B575")).
	Width(24)

var phrasesCmd = &cobra.Command{
	Use:     "phrases",
	Short:   "List the announcement catalogue",
	Long:    paragraph(fmt.Sprintf("\n%s every phrase NetraMarg can say, with overrides from %s applied.", keyword("List"), keyword("phrases_file"))),
	Example: paragraph("netramarg phrases"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		p, err := cfg.LoadPhrases()
		if err != nil {
			return err //nolint:wrapcheck
		}
		catalog := p.Catalog()
		catalog["sos_sent"] = p.SOSFollowUp(cfg.Contacts)

		textStyle := lipgloss.NewStyle().Width(max(20, int(width)-26)) //nolint:gosec
		var b strings.Builder
		for _, k := range p.Keys() {
			b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
				phraseKeyStyle.Render(k),
				textStyle.Render(catalog[k]),
			))
			b.WriteString("\n")
		}
		fmt.Print(b.String())
		return nil
	},
}
