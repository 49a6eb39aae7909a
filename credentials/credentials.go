// Package credentials implements the interactive credential acquisition that
// answers the daemon's blocking password requests: resolve which scheme
// protects the device, run the matching prompt or TPM retrieval, and enforce
// that the result is either a usable passphrase or an explicit cancellation.
package credentials

import (
	"errors"
	"fmt"

	"github.com/diskenc-io/agent/dialogs"
	"github.com/diskenc-io/agent/types"
)

// ErrUnsupportedScheme means the device's credential scheme could not be
// resolved and the daemon's request cannot be serviced.
var ErrUnsupportedScheme = errors.New("unsupported credential scheme")

// Resolver classifies which credential scheme protects a device.
type Resolver interface {
	KeyScheme(dev string) types.CredentialScheme
}

// Deriver turns a PIN (possibly empty) into the device passphrase using a
// TPM-backed secret or an external discovery provider.
type Deriver interface {
	Derive(dev, pin string) (string, error)
}

// Flow runs the credential acquisition for one device at a time. Like the
// rest of the UI it must run on the coordinator goroutine.
type Flow struct {
	ui       dialogs.UI
	resolver Resolver
	deriver  Deriver
	log      types.AgentLogger
}

func NewFlow(ui dialogs.UI, resolver Resolver, deriver Deriver, log types.AgentLogger) *Flow {
	return &Flow{ui: ui, resolver: resolver, deriver: deriver, log: log}
}

// Acquire blocks until the user supplies a credential or cancels. On a nil
// error, exactly one of a non-empty passphrase or a true cancelled flag
// holds. A non-nil error means the request could not be serviced at all.
func (f *Flow) Acquire(dev string) (types.CredentialResult, error) {
	scheme := f.resolver.KeyScheme(dev)
	f.log.Logger.Debug().Str("device", dev).Stringer("scheme", scheme).Msg("Acquiring device credential")

	var res types.CredentialResult
	var derr error
	switch scheme {
	case types.SchemePasswordOnly:
		res = f.acquirePassphrase(dev)
	case types.SchemeTPMAndPIN:
		res, derr = f.acquireByPIN(dev)
	case types.SchemeTPMOnly:
		res, derr = f.acquireByTPM(dev)
	default:
		return types.CredentialResult{}, fmt.Errorf("%w for device %s", ErrUnsupportedScheme, dev)
	}

	// An empty passphrase that was not a cancellation is a wrong or broken
	// credential: tell the user once, then force cancellation so the daemon
	// never sees an empty secret.
	if res.Passphrase == "" && !res.Cancelled {
		f.warnWrongCredential(scheme, derr)
		res.Cancelled = true
	}
	return res, nil
}

func (f *Flow) acquirePassphrase(dev string) types.CredentialResult {
	text, ok := f.ui.PasswordPrompt(fmt.Sprintf("Unlock device %s", dev))
	if !ok {
		return types.CredentialResult{Cancelled: true}
	}
	return types.CredentialResult{Passphrase: text}
}

func (f *Flow) acquireByPIN(dev string) (types.CredentialResult, error) {
	ans, ok := f.ui.PINPrompt(fmt.Sprintf("Unlock device %s", dev))
	if !ok {
		return types.CredentialResult{Cancelled: true}, nil
	}
	if ans.Fallback {
		return types.CredentialResult{Passphrase: ans.Value}, nil
	}

	pass, err := f.deriver.Derive(dev, ans.Value)
	if err != nil {
		return types.CredentialResult{}, err
	}
	return types.CredentialResult{Passphrase: pass}, nil
}

func (f *Flow) acquireByTPM(dev string) (types.CredentialResult, error) {
	pass, err := f.deriver.Derive(dev, "")
	if err != nil {
		return types.CredentialResult{}, err
	}
	return types.CredentialResult{Passphrase: pass}, nil
}

// warnWrongCredential shows the single blocking advisory pointing the user at
// the recovery key. A failed derivation and an empty-but-successful one are
// logged apart so they stay diagnosable, even though both end the same way
// for the user.
func (f *Flow) warnWrongCredential(scheme types.CredentialScheme, derr error) {
	var title string
	switch scheme {
	case types.SchemeTPMAndPIN:
		title = "Wrong PIN"
	case types.SchemePasswordOnly:
		title = "Wrong passphrase"
	default:
		title = "TPM error"
	}

	if derr != nil {
		f.log.Logger.Warn().Err(derr).Stringer("scheme", scheme).Msg("Passphrase derivation failed")
	} else {
		f.log.Logger.Warn().Stringer("scheme", scheme).Msg("Derivation produced an empty passphrase")
	}

	f.ui.ShowAdvisory(types.Advisory{
		Title:    title,
		Message:  "Please use recovery key to unlock device.",
		Severity: types.SeverityInfo,
	})
}
