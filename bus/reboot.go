package bus

import (
	"github.com/godbus/dbus/v5"

	"github.com/diskenc-io/agent/types"
)

// SessionManager is a thin proxy for the desktop session service.
type SessionManager struct {
	conn  *dbus.Conn
	name  string
	path  dbus.ObjectPath
	iface string
	log   types.AgentLogger
}

func NewSessionManager(conn *dbus.Conn, name string, path dbus.ObjectPath, iface string, log types.AgentLogger) *SessionManager {
	if name == "" {
		name = DefaultSessionBusName
	}
	if path == "" {
		path = DefaultSessionObjectPath
	}
	if iface == "" {
		iface = DefaultSessionInterface
	}
	return &SessionManager{conn: conn, name: name, path: path, iface: iface, log: log}
}

// RequestReboot asks the session service to reboot. Fire and forget: the
// session manager decides when and whether to act, no reply is awaited.
func (s *SessionManager) RequestReboot() error {
	s.log.Logger.Info().Str("service", s.name).Msg("Requesting reboot")
	call := s.conn.Object(s.name, s.path).Call(s.iface+".RequestReboot", dbus.FlagNoReplyExpected)
	return call.Err
}
