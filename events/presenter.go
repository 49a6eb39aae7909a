package events

import (
	"fmt"

	"github.com/diskenc-io/agent/types"
)

// Outcome mapping: every daemon result code maps to exactly one advisory.
// Codes arrive as 0 or negated magnitudes; anything outside the known set
// falls through to a generic failure carrying the raw code.

func PreencryptOutcome(dev, devName string, code int) types.Advisory {
	device := types.DisplayName(dev, devName)
	switch -code {
	case types.CodeSuccess:
		return types.Advisory{
			Title:    "Preencrypt done",
			Message:  fmt.Sprintf("Device %s has been preencrypted, please reboot to finish encryption.", device),
			Severity: types.SeverityInfo,
		}
	case types.CodeUserCancelled:
		return types.Advisory{
			Title:    "Encrypt disk",
			Message:  "User cancelled operation",
			Severity: types.SeverityInfo,
		}
	default:
		return types.Advisory{
			Title:    "Preencrypt failed",
			Message:  fmt.Sprintf("Device %s preencrypt failed, please see log for more information.(%d)", device, code),
			Severity: types.SeverityError,
		}
	}
}

// EncryptOutcome has no taxonomy beyond success/failure.
func EncryptOutcome(dev, devName string, code int) types.Advisory {
	device := types.DisplayName(dev, devName)
	if code != types.CodeSuccess {
		return types.Advisory{
			Title:    "Encrypt failed",
			Message:  fmt.Sprintf("Device %s encrypt failed, please see log for more information.(%d)", device, code),
			Severity: types.SeverityError,
		}
	}
	return types.Advisory{
		Title:    "Encrypt done",
		Message:  fmt.Sprintf("Device %s has been encrypted", device),
		Severity: types.SeverityInfo,
	}
}

func DecryptOutcome(dev, devName string, code int) types.Advisory {
	device := types.DisplayName(dev, devName)
	switch -code {
	case types.CodeSuccess:
		return types.Advisory{
			Title:    "Decrypt done",
			Message:  fmt.Sprintf("Device %s has been decrypted", device),
			Severity: types.SeverityInfo,
		}
	case types.CodeUserCancelled:
		return types.Advisory{
			Title:    "Decrypt disk",
			Message:  "User cancelled operation",
			Severity: types.SeverityInfo,
		}
	case types.CodeWrongPassphrase:
		return types.Advisory{
			Title:    "Decrypt disk",
			Message:  "Wrong passphrase or PIN",
			Severity: types.SeverityError,
		}
	default:
		return types.Advisory{
			Title:    "Decrypt failed",
			Message:  fmt.Sprintf("Device %s decrypt failed, please see log for more information.(%d)", device, code),
			Severity: types.SeverityError,
		}
	}
}

func ChangePassphraseOutcome(dev, devName string, code int) types.Advisory {
	device := types.DisplayName(dev, devName)
	switch -code {
	case types.CodeSuccess:
		return types.Advisory{
			Title:    "Change passphrase done",
			Message:  fmt.Sprintf("%s's passphrase has been changed", device),
			Severity: types.SeverityInfo,
		}
	case types.CodeUserCancelled:
		return types.Advisory{
			Title:    "Change passphrase",
			Message:  "User cancelled operation",
			Severity: types.SeverityInfo,
		}
	case types.CodeChangePassphraseFailed:
		return types.Advisory{
			Title:    "Change passphrase failed",
			Message:  "Wrong passphrase or PIN",
			Severity: types.SeverityError,
		}
	default:
		return types.Advisory{
			Title:    "Change passphrase failed",
			Message:  fmt.Sprintf("Device %s change passphrase failed, please see log for more information.(%d)", device, code),
			Severity: types.SeverityError,
		}
	}
}
