package types

import (
	"fmt"
	"strings"
)

// OperationKind identifies one of the daemon's long-running disk operations.
type OperationKind int

const (
	OpPreencrypt OperationKind = iota
	OpEncrypt
	OpDecrypt
	OpChangePassphrase
)

func (k OperationKind) String() string {
	switch k {
	case OpPreencrypt:
		return "preencrypt"
	case OpEncrypt:
		return "encrypt"
	case OpDecrypt:
		return "decrypt"
	case OpChangePassphrase:
		return "change-passphrase"
	default:
		return "unknown"
	}
}

// Result codes as the daemon reports them: 0 for success, negated magnitudes
// for everything else. Codes outside this set are generic failures and are
// shown to the user verbatim.
const (
	CodeSuccess                = 0
	CodeUserCancelled          = 1
	CodeWrongPassphrase        = 2
	CodeChangePassphraseFailed = 3
	// CodeRebootRequired marks a decrypt that succeeded but needs a reboot
	// to complete.
	CodeRebootRequired = 4
)

// Severity selects the iconography of an advisory dialog.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "info"
}

// Advisory is the payload of one terminal outcome dialog.
type Advisory struct {
	Title    string
	Message  string
	Severity Severity
}

// CredentialScheme is the category of secret protecting an encrypted device.
type CredentialScheme int

const (
	SchemeUnknown CredentialScheme = iota
	SchemePasswordOnly
	SchemeTPMOnly
	SchemeTPMAndPIN
)

func (s CredentialScheme) String() string {
	switch s {
	case SchemePasswordOnly:
		return "password-only"
	case SchemeTPMOnly:
		return "tpm-only"
	case SchemeTPMAndPIN:
		return "tpm-and-pin"
	default:
		return "unknown"
	}
}

// CredentialResult is the outcome of one credential acquisition. After the
// flow returns, exactly one of a non-empty Passphrase or a true Cancelled
// flag holds.
type CredentialResult struct {
	Passphrase string
	Cancelled  bool
}

// DisplayName renders the user-facing device label: the human-readable name
// followed by the device node without its /dev/ prefix.
func DisplayName(dev, devName string) string {
	return fmt.Sprintf("%s(%s)", devName, strings.TrimPrefix(dev, "/dev/"))
}
