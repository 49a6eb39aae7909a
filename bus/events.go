// Package bus connects the agent to the system D-Bus: it subscribes to the
// encryption daemon's status signals, exports the blocking password hook, and
// carries the fire-and-forget reboot request to the session manager.
package bus

import (
	"github.com/godbus/dbus/v5"
)

// Signal members emitted by the encryption daemon. ChangePassphressResult
// keeps the daemon-side spelling.
const (
	SignalPreencryptResult       = "PrepareEncryptDiskResult"
	SignalEncryptResult          = "EncryptDiskResult"
	SignalEncryptProgress        = "EncryptProgress"
	SignalDecryptResult          = "DecryptDiskResult"
	SignalDecryptProgress        = "DecryptProgress"
	SignalChangePassphraseResult = "ChangePassphressResult"
)

// AllSignals lists every daemon signal the manager subscribes to.
var AllSignals = []string{
	SignalPreencryptResult,
	SignalEncryptResult,
	SignalEncryptProgress,
	SignalDecryptResult,
	SignalDecryptProgress,
	SignalChangePassphraseResult,
}

// Default daemon endpoint, overridable through options.
const (
	DefaultDaemonBusName   = "io.diskenc.Daemon1"
	DefaultDaemonInterface = "io.diskenc.Daemon1"

	DefaultAgentBusName   = "io.diskenc.Agent1"
	DefaultAgentInterface = "io.diskenc.Agent1"

	DefaultSessionBusName   = "io.diskenc.SessionManager1"
	DefaultSessionInterface = "io.diskenc.SessionManager1"
)

var (
	DefaultDaemonObjectPath  = dbus.ObjectPath("/io/diskenc/Daemon1")
	DefaultAgentObjectPath   = dbus.ObjectPath("/io/diskenc/Agent1")
	DefaultSessionObjectPath = dbus.ObjectPath("/io/diskenc/SessionManager1")
)

// DaemonNotifications is the typed subscription surface for daemon signals,
// one method per signal. The auxiliary string on some result signals is
// carried by the daemon for interface compatibility and takes no part in any
// decision.
type DaemonNotifications interface {
	OnPreencryptResult(dev, devName, aux string, code int)
	OnEncryptResult(dev, devName string, code int)
	OnEncryptProgress(dev, devName string, fraction float64)
	OnDecryptResult(dev, devName, aux string, code int)
	OnDecryptProgress(dev, devName string, fraction float64)
	OnChangePassphraseResult(dev, devName, aux string, code int)
}

// PasswordProvider answers the daemon's blocking password request.
type PasswordProvider interface {
	AcquireDevicePassword(dev string) (passphrase string, cancelled bool, ok bool)
}

// Namer supplies a display name for a device when a signal arrives without
// one.
type Namer interface {
	Label(dev string) string
}
