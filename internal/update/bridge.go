package update

import tea "github.com/charmbracelet/bubbletea"

// Bridge turns store callbacks into program messages. Its methods never
// block; signals raised while one is already queued are merged.
type Bridge struct {
	changes chan struct{}
	signIn  chan struct{}
}

func NewBridge() *Bridge {
	return &Bridge{
		changes: make(chan struct{}, 1),
		signIn:  make(chan struct{}, 1),
	}
}

// Changed is meant for vibe.WithChangeHook.
func (b *Bridge) Changed() {
	select {
	case b.changes <- struct{}{}:
	default:
	}
}

// RequireSignIn implements vibe.Navigator.
func (b *Bridge) RequireSignIn() {
	select {
	case b.signIn <- struct{}{}:
	default:
	}
}

func waitForSignal(ch <-chan struct{}, msg tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return msg
	}
}

func (m Model) waitForStoreChange() tea.Cmd {
	if m.bridge == nil {
		return nil
	}
	return waitForSignal(m.bridge.changes, StoreChangedMsg{})
}

func (m Model) waitForSignInRequest() tea.Cmd {
	if m.bridge == nil {
		return nil
	}
	return waitForSignal(m.bridge.signIn, RequireSignInMsg{})
}
