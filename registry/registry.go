// Package registry tracks the progress dialogs of in-flight encrypt and
// decrypt operations, one entry per (operation, device).
package registry

import (
	"fmt"

	"github.com/diskenc-io/agent/dialogs"
	"github.com/diskenc-io/agent/types"
)

type key struct {
	kind types.OperationKind
	dev  string
}

// Registry maps in-flight operations to their progress dialogs. It is not
// safe for concurrent use: the coordinator goroutine owns it (see
// events.Handler.Run).
type Registry struct {
	ui      dialogs.UI
	log     types.AgentLogger
	entries map[key]dialogs.Progress
}

func New(ui dialogs.UI, log types.AgentLogger) *Registry {
	return &Registry{
		ui:      ui,
		log:     log,
		entries: map[key]dialogs.Progress{},
	}
}

// UpsertProgress creates the progress dialog for (kind, dev) on first use and
// updates its displayed fraction, as received, on every call. The dialog's
// own destruction erases the entry too, so a window closed by the user does
// not leave a stale entry behind.
func (r *Registry) UpsertProgress(kind types.OperationKind, dev, devName string, fraction float64) {
	k := key{kind, dev}
	p, ok := r.entries[k]
	if !ok {
		r.ui.ClearBusy()
		p = r.ui.NewProgress(progressLabel(kind, dev, devName))
		p.OnClose(func() { delete(r.entries, k) })
		r.entries[k] = p
		r.log.Logger.Info().
			Str("device", dev).
			Stringer("operation", kind).
			Msg("Tracking new operation")
	}
	p.Update(fraction)
}

// RemoveOnResult closes and erases the entry for (kind, dev). Calling it for
// an absent entry, or twice in a row, is a no-op.
func (r *Registry) RemoveOnResult(kind types.OperationKind, dev string) {
	k := key{kind, dev}
	p, ok := r.entries[k]
	if !ok {
		return
	}
	delete(r.entries, k)
	p.Close()
	r.log.Logger.Info().
		Str("device", dev).
		Stringer("operation", kind).
		Msg("Operation finished")
}

// HasActiveOperation reports whether any encrypt or decrypt operation still
// owns a progress dialog.
func (r *Registry) HasActiveOperation() bool {
	return len(r.entries) > 0
}

func progressLabel(kind types.OperationKind, dev, devName string) string {
	verb := "Encrypting"
	if kind == types.OpDecrypt {
		verb = "Decrypting"
	}
	return fmt.Sprintf("%s...%s", verb, types.DisplayName(dev, devName))
}
