// Package mocks provides a scripted dialogs.UI for tests. Answers are queued
// ahead of time; every interaction is recorded so tests can assert on what
// the coordinator showed.
package mocks

import (
	"github.com/diskenc-io/agent/dialogs"
	"github.com/diskenc-io/agent/types"
)

type UIMock struct {
	Advisories []types.Advisory
	Confirms   []string // titles of confirm dialogs shown
	ClearCalls int

	// Scripted answers, consumed front to back. An exhausted queue means
	// dismissal.
	ConfirmAnswers  []bool
	PasswordAnswers []PasswordAnswer
	PINAnswers      []PINScript

	Progresses []*ProgressMock
}

type PasswordAnswer struct {
	Text     string
	Accepted bool
}

type PINScript struct {
	Answer   dialogs.PINAnswer
	Accepted bool
}

func (u *UIMock) ShowAdvisory(a types.Advisory) {
	u.Advisories = append(u.Advisories, a)
}

func (u *UIMock) Confirm(title, message, dismiss, accept string) bool {
	u.Confirms = append(u.Confirms, title)
	if len(u.ConfirmAnswers) == 0 {
		return false
	}
	ans := u.ConfirmAnswers[0]
	u.ConfirmAnswers = u.ConfirmAnswers[1:]
	return ans
}

func (u *UIMock) PasswordPrompt(title string) (string, bool) {
	if len(u.PasswordAnswers) == 0 {
		return "", false
	}
	ans := u.PasswordAnswers[0]
	u.PasswordAnswers = u.PasswordAnswers[1:]
	return ans.Text, ans.Accepted
}

func (u *UIMock) PINPrompt(title string) (dialogs.PINAnswer, bool) {
	if len(u.PINAnswers) == 0 {
		return dialogs.PINAnswer{}, false
	}
	ans := u.PINAnswers[0]
	u.PINAnswers = u.PINAnswers[1:]
	return ans.Answer, ans.Accepted
}

func (u *UIMock) NewProgress(label string) dialogs.Progress {
	p := &ProgressMock{Label: label}
	u.Progresses = append(u.Progresses, p)
	return p
}

func (u *UIMock) ClearBusy() {
	u.ClearCalls++
}

type ProgressMock struct {
	Label     string
	Fractions []float64
	Closed    bool
	onClose   []func()
}

func (p *ProgressMock) Update(fraction float64) {
	p.Fractions = append(p.Fractions, fraction)
}

func (p *ProgressMock) Close() {
	if p.Closed {
		return
	}
	p.Closed = true
	for _, fn := range p.onClose {
		fn()
	}
}

func (p *ProgressMock) OnClose(fn func()) {
	p.onClose = append(p.onClose, fn)
}

// Destroy simulates the dialog resource going away on its own, e.g. the user
// closing the window, without the registry's removal path running first.
func (p *ProgressMock) Destroy() {
	p.Close()
}
