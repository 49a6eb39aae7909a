// Package dialogs is the boundary between the coordinator and whatever
// renders user interaction. Implementations decide how a dialog looks; all
// calls block until the user has answered.
package dialogs

import (
	"github.com/diskenc-io/agent/types"
)

// UI is the dialog surface the coordinator drives. It must only be called
// from the coordinator goroutine.
type UI interface {
	// ShowAdvisory presents a terminal outcome dialog and blocks until
	// dismissed.
	ShowAdvisory(a types.Advisory)

	// Confirm shows a two-button dialog and reports whether the user chose
	// the accept button. Dismissal counts as the dismiss button.
	Confirm(title, message, dismiss, accept string) bool

	// PasswordPrompt asks for a passphrase. The boolean is false when the
	// user dismissed the prompt.
	PasswordPrompt(title string) (string, bool)

	// PINPrompt offers either a PIN entry or a direct passphrase entry for
	// TPM+PIN devices. The boolean is false when the user dismissed it.
	PINPrompt(title string) (PINAnswer, bool)

	// NewProgress opens a progress dialog for one in-flight operation.
	NewProgress(label string) Progress

	// ClearBusy drops any busy/waiting indicator. Called before every modal
	// so the user never sees both at once.
	ClearBusy()
}

// PINAnswer carries what the user typed in a PIN prompt. Fallback is true
// when they bypassed the PIN and entered the passphrase directly.
type PINAnswer struct {
	Value    string
	Fallback bool
}

// Progress is one live progress dialog.
type Progress interface {
	// Update sets the displayed fraction in [0,1], applied as received.
	Update(fraction float64)

	// Close disposes the dialog. Closing twice is a no-op.
	Close()

	// OnClose registers fn to run once when the dialog goes away, whether
	// through Close or through the dialog's own destruction.
	OnClose(fn func())
}
