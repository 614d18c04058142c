package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/neelchudasama51-ui/netramarg/internal/announce"
)

type (
	eventMsg          announce.Event
	eventsClosedMsg   struct{}
	helpRenderedMsg   string
	copiedMsg         struct{ text string }
	toastTimeoutMsg   struct{ seq int }
	statusTimeoutMsg  struct{ seq int }
	controllerInitMsg struct{}
)

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

// bridge carries controller events into the bubbletea loop. The
// controller's listener runs under its lock, so a full buffer drops the
// event instead of waiting for the UI.
type bridge struct {
	ch          chan announce.Event
	unsubscribe func()
	once        sync.Once
}

func newBridge(ctrl Controller, size int) *bridge {
	b := &bridge{ch: make(chan announce.Event, size)}
	b.unsubscribe = ctrl.Subscribe(func(e announce.Event) {
		select {
		case b.ch <- e:
		default:
			log.Debug("ui event dropped", "kind", e.Kind)
		}
	})
	return b
}

// close detaches from the controller. It must not race a listener call, so
// the subscription is removed before the channel is closed.
func (b *bridge) close() {
	b.once.Do(func() {
		b.unsubscribe()
		close(b.ch)
	})
}

func waitForEvent(b *bridge) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-b.ch
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(e)
	}
}
