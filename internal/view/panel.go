package view

import "github.com/rs/zerolog/log"

type PanelState struct {
	Present      bool `json:"present"`
	Open         bool `json:"open"`
	ScrollLocked bool `json:"scroll_locked"`
	Expanded     bool `json:"expanded"`
}

// Panel is the slide-over filter panel. Without its page elements it stays
// closed and ignores input.
type Panel struct {
	present bool
	open    bool
}

func NewPanel(l Layout) *Panel {
	present := l.PanelToggle && l.PanelClose && l.PanelBackdrop
	if !present {
		log.Warn().Msg("filter panel elements not found, panel disabled")
	}
	return &Panel{present: present}
}

func (p *Panel) Open() {
	if p.present {
		p.open = true
	}
}

func (p *Panel) Close() { p.open = false }

// KeyDown closes the panel on Escape.
func (p *Panel) KeyDown(key string) {
	if key == "Escape" && p.open {
		p.Close()
	}
}

func (p *Panel) BackdropClick() { p.Close() }

func (p *Panel) State() PanelState {
	return PanelState{Present: p.present, Open: p.open, ScrollLocked: p.open, Expanded: p.open}
}
