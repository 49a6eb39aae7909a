package dialogs

import (
	"github.com/pterm/pterm"

	"github.com/diskenc-io/agent/types"
)

// Terminal renders dialogs with pterm. It is the default UI when the agent
// runs attached to a terminal; a desktop shell can provide its own UI
// implementation instead.
type Terminal struct {
	log  types.AgentLogger
	busy *pterm.SpinnerPrinter
}

func NewTerminal(log types.AgentLogger) *Terminal {
	return &Terminal{log: log}
}

func (t *Terminal) ShowAdvisory(a types.Advisory) {
	switch a.Severity {
	case types.SeverityError:
		pterm.Error.Printfln("%s: %s", a.Title, a.Message)
	default:
		pterm.Info.Printfln("%s: %s", a.Title, a.Message)
	}
}

func (t *Terminal) Confirm(title, message, dismiss, accept string) bool {
	pterm.Info.Printfln("%s: %s", title, message)
	choice, err := pterm.DefaultInteractiveSelect.
		WithOptions([]string{dismiss, accept}).
		WithDefaultText(title).
		Show()
	if err != nil {
		t.log.Debugf("confirm dismissed: %v", err)
		return false
	}
	return choice == accept
}

func (t *Terminal) PasswordPrompt(title string) (string, bool) {
	text, err := pterm.DefaultInteractiveTextInput.
		WithMask("*").
		Show(title)
	if err != nil {
		t.log.Debugf("password prompt dismissed: %v", err)
		return "", false
	}
	return text, true
}

const (
	pinChoice        = "Unlock with PIN"
	passphraseChoice = "Unlock with passphrase"
)

func (t *Terminal) PINPrompt(title string) (PINAnswer, bool) {
	choice, err := pterm.DefaultInteractiveSelect.
		WithOptions([]string{pinChoice, passphraseChoice}).
		WithDefaultText(title).
		Show()
	if err != nil {
		t.log.Debugf("pin prompt dismissed: %v", err)
		return PINAnswer{}, false
	}

	prompt := "PIN"
	if choice == passphraseChoice {
		prompt = "Passphrase"
	}
	value, err := pterm.DefaultInteractiveTextInput.
		WithMask("*").
		Show(prompt)
	if err != nil {
		t.log.Debugf("pin entry dismissed: %v", err)
		return PINAnswer{}, false
	}
	return PINAnswer{Value: value, Fallback: choice == passphraseChoice}, true
}

func (t *Terminal) NewProgress(label string) Progress {
	bar, err := pterm.DefaultProgressbar.
		WithTotal(100).
		WithTitle(label).
		Start()
	if err != nil {
		t.log.Warnf("progress bar failed to start: %v", err)
	}
	return &termProgress{bar: bar}
}

func (t *Terminal) ClearBusy() {
	if t.busy == nil {
		return
	}
	_ = t.busy.Stop()
	t.busy = nil
}

// SetBusy shows a spinner until the next modal clears it.
func (t *Terminal) SetBusy(text string) {
	t.ClearBusy()
	spinner, err := pterm.DefaultSpinner.Start(text)
	if err != nil {
		return
	}
	t.busy = spinner
}

type termProgress struct {
	bar     *pterm.ProgressbarPrinter
	onClose []func()
	closed  bool
}

func (p *termProgress) Update(fraction float64) {
	if p.bar == nil || p.closed {
		return
	}
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	if d := int(fraction*100) - p.bar.Current; d > 0 {
		p.bar.Add(d)
	}
}

func (p *termProgress) Close() {
	if p.closed {
		return
	}
	p.closed = true
	if p.bar != nil {
		p.bar.Stop()
	}
	for _, fn := range p.onClose {
		fn()
	}
}

func (p *termProgress) OnClose(fn func()) {
	p.onClose = append(p.onClose, fn)
}
