package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/neelchudasama51-ui/netramarg/internal/announce"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"
)

var errNoPhrase = errors.New("no phrase matches")

var sayCmd = &cobra.Command{
	Use:   "say PHRASE",
	Short: "Speak a phrase from the catalogue",
	Long: paragraph(fmt.Sprintf("\n%s the catalogue phrase whose name or text best matches PHRASE. Run %s to see them all.",
		keyword("Speak"), keyword("netramarg phrases"))),
	Example: paragraph("netramarg say welcome\nnetramarg say sos sent\nnetramarg say \"clear path\""),
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg, log.Default())
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		key, text, err := matchPhrase(a.phrases, a.ctrl.Contacts(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Println(keyword(key), faint(text))

		if a.announcer == nil {
			log.Warn("speech unavailable, nothing was spoken")
			return nil
		}

		ctx, cancel := signalContext()
		defer cancel()
		a.ctrl.Announce(text)
		return a.waitQuiet(ctx)
	},
}

// matchPhrase finds the phrase whose key, then whose text, best matches
// pattern.
func matchPhrase(p announce.Phrases, contacts int, pattern string) (key, text string, err error) {
	catalog := p.Catalog()
	catalog["sos_sent"] = p.SOSFollowUp(contacts)
	keys := p.Keys()

	// Keys use underscores; let "sos sent" find sos_sent.
	if m := fuzzy.Find(strings.ReplaceAll(pattern, " ", "_"), keys); len(m) > 0 {
		return m[0].Str, catalog[m[0].Str], nil
	}

	texts := make([]string, len(keys))
	for i, k := range keys {
		texts[i] = catalog[k]
	}
	if m := fuzzy.Find(pattern, texts); len(m) > 0 {
		return keys[m[0].Index], m[0].Str, nil
	}
	return "", "", fmt.Errorf("%w %q", errNoPhrase, pattern)
}
