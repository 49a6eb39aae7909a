// Package events routes daemon notifications to the dialog registry and the
// outcome presenter, and answers the daemon's blocking password requests.
package events

import (
	"context"
	"fmt"

	"github.com/diskenc-io/agent/dialogs"
	"github.com/diskenc-io/agent/registry"
	"github.com/diskenc-io/agent/types"
)

// Acquirer produces credentials for a device, blocking on user interaction
// until the user supplies something or cancels.
type Acquirer interface {
	Acquire(dev string) (types.CredentialResult, error)
}

// Rebooter asks the session manager to reboot the machine.
type Rebooter interface {
	RequestReboot() error
}

// RebootFunc adapts a plain function to Rebooter.
type RebootFunc func() error

func (f RebootFunc) RequestReboot() error { return f() }

// Handler is the coordinator between the daemon and the user. All registry
// and dialog state is owned by the Run goroutine; the notification methods
// and the password hook enqueue work onto it, so they may be called from any
// goroutine.
type Handler struct {
	ui     dialogs.UI
	reg    *registry.Registry
	flow   Acquirer
	reboot Rebooter
	log    types.AgentLogger
	tasks  chan func()
}

func New(ui dialogs.UI, reg *registry.Registry, flow Acquirer, reboot Rebooter, log types.AgentLogger) *Handler {
	return &Handler{
		ui:     ui,
		reg:    reg,
		flow:   flow,
		reboot: reboot,
		log:    log,
		tasks:  make(chan func(), 64),
	}
}

// Run consumes queued work until ctx is cancelled. It is the only goroutine
// allowed to touch the registry and the dialogs; modal dialogs block it, and
// notifications arriving meanwhile queue up and run afterwards in order.
func (h *Handler) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-h.tasks:
			fn()
		}
	}
}

func (h *Handler) post(fn func()) {
	h.tasks <- fn
}

// OnPreencryptResult handles the daemon's pre-encryption step: success means
// a reboot is needed before encryption proper starts.
func (h *Handler) OnPreencryptResult(dev, devName, _ string, code int) {
	h.post(func() {
		h.ui.ClearBusy()
		if code != types.CodeSuccess {
			h.ui.ShowAdvisory(PreencryptOutcome(dev, devName, code))
			return
		}
		h.log.Logger.Info().Str("device", dev).Msg("Preencrypt done, reboot is required")
		h.confirmReboot(
			"Preencrypt done",
			fmt.Sprintf("Device %s has been preencrypted, please reboot to finish encryption.", types.DisplayName(dev, devName)),
		)
	})
}

func (h *Handler) OnEncryptResult(dev, devName string, code int) {
	h.post(func() {
		h.ui.ClearBusy()
		h.reg.RemoveOnResult(types.OpEncrypt, dev)
		h.ui.ShowAdvisory(EncryptOutcome(dev, devName, code))
	})
}

func (h *Handler) OnEncryptProgress(dev, devName string, fraction float64) {
	h.post(func() {
		h.reg.UpsertProgress(types.OpEncrypt, dev, devName, fraction)
	})
}

func (h *Handler) OnDecryptResult(dev, devName, _ string, code int) {
	h.post(func() {
		h.ui.ClearBusy()
		h.reg.RemoveOnResult(types.OpDecrypt, dev)
		if code == -types.CodeRebootRequired {
			h.confirmReboot(
				"Decrypt device",
				fmt.Sprintf("Please reboot to decrypt device %s.", types.DisplayName(dev, devName)),
			)
			return
		}
		h.ui.ShowAdvisory(DecryptOutcome(dev, devName, code))
	})
}

func (h *Handler) OnDecryptProgress(dev, devName string, fraction float64) {
	h.post(func() {
		h.reg.UpsertProgress(types.OpDecrypt, dev, devName, fraction)
	})
}

// OnChangePassphraseResult has no registry involvement: the operation never
// shows a progress dialog.
func (h *Handler) OnChangePassphraseResult(dev, devName, _ string, code int) {
	h.post(func() {
		h.ui.ClearBusy()
		h.ui.ShowAdvisory(ChangePassphraseOutcome(dev, devName, code))
	})
}

// AcquireDevicePassword services the daemon's blocking password request. It
// does not return until the credential flow finished; an unresponsive user
// stalls the caller indefinitely. ok is false only when the device is unknown
// or its credential scheme cannot be resolved.
func (h *Handler) AcquireDevicePassword(dev string) (passphrase string, cancelled bool, ok bool) {
	if dev == "" {
		return "", false, false
	}

	type reply struct {
		res types.CredentialResult
		ok  bool
	}
	ch := make(chan reply, 1)
	h.post(func() {
		res, err := h.flow.Acquire(dev)
		if err != nil {
			h.log.Logger.Error().Err(err).Str("device", dev).Msg("Credential acquisition failed")
			ch <- reply{}
			return
		}
		ch <- reply{res: res, ok: true}
	})

	r := <-ch
	return r.res.Passphrase, r.res.Cancelled, r.ok
}

// HasActiveOperation reports whether any encrypt or decrypt job is still in
// flight. The answer round-trips through the coordinator queue, so it is
// ordered after every notification posted before it.
func (h *Handler) HasActiveOperation() bool {
	ch := make(chan bool, 1)
	h.post(func() { ch <- h.reg.HasActiveOperation() })
	return <-ch
}

func (h *Handler) confirmReboot(title, message string) {
	if !h.ui.Confirm(title, message, "Reboot later", "Reboot now") {
		return
	}
	h.log.Logger.Info().Msg("Reboot is confirmed")
	if err := h.reboot.RequestReboot(); err != nil {
		h.log.Logger.Warn().Err(err).Msg("Reboot request failed")
	}
}
