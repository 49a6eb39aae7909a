package bus

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/godbus/dbus/v5"
	"github.com/gofrs/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/diskenc-io/agent/types"
)

// Manager owns the system-bus connection: it subscribes the daemon's signals,
// decodes them into the typed handler interface, and exports the agent's
// password hook.
type Manager struct {
	conn     *dbus.Conn
	handler  DaemonNotifications
	provider PasswordProvider
	namer    Namer
	log      types.AgentLogger

	daemonName  string
	daemonPath  dbus.ObjectPath
	daemonIface string
	agentName   string
	agentPath   dbus.ObjectPath
	agentIface  string

	signals    chan *dbus.Signal
	registered bool
}

type Option func(*Manager)

// WithDaemonEndpoint overrides where the encryption daemon lives on the bus.
func WithDaemonEndpoint(name string, path dbus.ObjectPath, iface string) Option {
	return func(m *Manager) {
		m.daemonName, m.daemonPath, m.daemonIface = name, path, iface
	}
}

// WithAgentEndpoint overrides the name and path the password hook is exported
// under.
func WithAgentEndpoint(name string, path dbus.ObjectPath, iface string) Option {
	return func(m *Manager) {
		m.agentName, m.agentPath, m.agentIface = name, path, iface
	}
}

// WithDeviceNamer sets a fallback display-name source for signals that arrive
// without one.
func WithDeviceNamer(n Namer) Option {
	return func(m *Manager) {
		m.namer = n
	}
}

// WithConnection injects an established connection instead of dialing the
// system bus.
func WithConnection(conn *dbus.Conn) Option {
	return func(m *Manager) {
		m.conn = conn
	}
}

func NewManager(handler DaemonNotifications, provider PasswordProvider, log types.AgentLogger, opts ...Option) *Manager {
	m := &Manager{
		handler:     handler,
		provider:    provider,
		log:         log,
		daemonName:  DefaultDaemonBusName,
		daemonPath:  DefaultDaemonObjectPath,
		daemonIface: DefaultDaemonInterface,
		agentName:   DefaultAgentBusName,
		agentPath:   DefaultAgentObjectPath,
		agentIface:  DefaultAgentInterface,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Connect dials the system bus. The bus may not be up yet when the session
// starts, so the dial is retried with a growing delay.
func (m *Manager) Connect(ctx context.Context) error {
	if m.conn != nil {
		return nil
	}
	return retry.Do(
		func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			conn, err := dbus.ConnectSystemBus()
			if err != nil {
				return fmt.Errorf("connecting to system bus: %w", err)
			}
			m.conn = conn
			return nil
		},
		retry.Attempts(5),
		retry.Delay(500*time.Millisecond),
		retry.OnRetry(func(n uint, err error) {
			m.log.Logger.Warn().Uint("attempt", n).Err(err).Msg("System bus not reachable yet")
		}),
	)
}

// Conn exposes the live connection for collaborators sharing it, such as the
// session manager proxy.
func (m *Manager) Conn() *dbus.Conn {
	return m.conn
}

// Register subscribes the daemon signals and exports the password hook. It is
// idempotent.
func (m *Manager) Register() error {
	if m.registered {
		return nil
	}

	for _, member := range AllSignals {
		if err := m.conn.AddMatchSignal(
			dbus.WithMatchSender(m.daemonName),
			dbus.WithMatchObjectPath(m.daemonPath),
			dbus.WithMatchInterface(m.daemonIface),
			dbus.WithMatchMember(member),
		); err != nil {
			return fmt.Errorf("subscribing to %s: %w", member, err)
		}
	}

	m.signals = make(chan *dbus.Signal, 64)
	m.conn.Signal(m.signals)

	if err := m.conn.Export(hook{m}, m.agentPath, m.agentIface); err != nil {
		return fmt.Errorf("exporting password hook: %w", err)
	}
	reply, err := m.conn.RequestName(m.agentName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("requesting bus name %s: %w", m.agentName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s is already owned, is another agent running?", m.agentName)
	}

	m.registered = true
	m.log.Logger.Info().Str("daemon", m.daemonName).Str("agent", m.agentName).Msg("Registered on system bus")
	return nil
}

// Serve decodes signals and forwards them to the typed handler until ctx
// ends or the connection closes.
func (m *Manager) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig, ok := <-m.signals:
			if !ok {
				return nil
			}
			m.dispatch(sig)
		}
	}
}

func (m *Manager) Close() error {
	var errs error
	if m.conn != nil {
		if m.registered {
			if _, err := m.conn.ReleaseName(m.agentName); err != nil {
				errs = multierror.Append(errs, err)
			}
		}
		if err := m.conn.Close(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs
}

func (m *Manager) dispatch(sig *dbus.Signal) {
	id, _ := uuid.NewV4()
	log := m.log.Logger.With().Str("signal", sig.Name).Str("id", id.String()).Logger()

	member := strings.TrimPrefix(sig.Name, m.daemonIface+".")
	switch member {
	case SignalPreencryptResult:
		dev, devName, aux, code, err := resultArgs(sig.Body)
		if err != nil {
			log.Warn().Err(err).Msg("Dropping malformed signal")
			return
		}
		log.Info().Str("device", dev).Int("code", code).Msg("Preencrypt result")
		m.handler.OnPreencryptResult(dev, m.name(dev, devName), aux, code)

	case SignalEncryptResult:
		dev, devName, code, err := shortResultArgs(sig.Body)
		if err != nil {
			log.Warn().Err(err).Msg("Dropping malformed signal")
			return
		}
		log.Info().Str("device", dev).Int("code", code).Msg("Encrypt result")
		m.handler.OnEncryptResult(dev, m.name(dev, devName), code)

	case SignalEncryptProgress:
		dev, devName, fraction, err := progressArgs(sig.Body)
		if err != nil {
			log.Warn().Err(err).Msg("Dropping malformed signal")
			return
		}
		log.Debug().Str("device", dev).Float64("progress", fraction).Msg("Encrypt progress")
		m.handler.OnEncryptProgress(dev, m.name(dev, devName), fraction)

	case SignalDecryptResult:
		dev, devName, aux, code, err := resultArgs(sig.Body)
		if err != nil {
			log.Warn().Err(err).Msg("Dropping malformed signal")
			return
		}
		log.Info().Str("device", dev).Int("code", code).Msg("Decrypt result")
		m.handler.OnDecryptResult(dev, m.name(dev, devName), aux, code)

	case SignalDecryptProgress:
		dev, devName, fraction, err := progressArgs(sig.Body)
		if err != nil {
			log.Warn().Err(err).Msg("Dropping malformed signal")
			return
		}
		log.Debug().Str("device", dev).Float64("progress", fraction).Msg("Decrypt progress")
		m.handler.OnDecryptProgress(dev, m.name(dev, devName), fraction)

	case SignalChangePassphraseResult:
		dev, devName, aux, code, err := resultArgs(sig.Body)
		if err != nil {
			log.Warn().Err(err).Msg("Dropping malformed signal")
			return
		}
		log.Info().Str("device", dev).Int("code", code).Msg("Change passphrase result")
		m.handler.OnChangePassphraseResult(dev, m.name(dev, devName), aux, code)

	default:
		log.Debug().Msg("Ignoring unrelated signal")
	}
}

func (m *Manager) name(dev, devName string) string {
	if devName != "" || m.namer == nil {
		return devName
	}
	return m.namer.Label(dev)
}

// Signal argument decoding. The daemon sends (s, s, s, i) for the three-arg
// results, (s, s, i) for the encrypt result and (s, s, d) for progress.

func resultArgs(body []interface{}) (dev, devName, aux string, code int, err error) {
	if len(body) != 4 {
		return "", "", "", 0, fmt.Errorf("expected 4 arguments, got %d", len(body))
	}
	dev, ok1 := body[0].(string)
	devName, ok2 := body[1].(string)
	aux, ok3 := body[2].(string)
	c, ok4 := body[3].(int32)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return "", "", "", 0, fmt.Errorf("unexpected argument types %T %T %T %T", body[0], body[1], body[2], body[3])
	}
	return dev, devName, aux, int(c), nil
}

func shortResultArgs(body []interface{}) (dev, devName string, code int, err error) {
	if len(body) != 3 {
		return "", "", 0, fmt.Errorf("expected 3 arguments, got %d", len(body))
	}
	dev, ok1 := body[0].(string)
	devName, ok2 := body[1].(string)
	c, ok3 := body[2].(int32)
	if !ok1 || !ok2 || !ok3 {
		return "", "", 0, fmt.Errorf("unexpected argument types %T %T %T", body[0], body[1], body[2])
	}
	return dev, devName, int(c), nil
}

func progressArgs(body []interface{}) (dev, devName string, fraction float64, err error) {
	if len(body) != 3 {
		return "", "", 0, fmt.Errorf("expected 3 arguments, got %d", len(body))
	}
	dev, ok1 := body[0].(string)
	devName, ok2 := body[1].(string)
	f, ok3 := body[2].(float64)
	if !ok1 || !ok2 || !ok3 {
		return "", "", 0, fmt.Errorf("unexpected argument types %T %T %T", body[0], body[1], body[2])
	}
	return dev, devName, f, nil
}

// hook is the exported D-Bus object answering AcquireDevicePassword. The call
// blocks until the credential flow finished; no timeout is applied, so an
// unresponsive user stalls the caller.
type hook struct {
	m *Manager
}

func (h hook) AcquireDevicePassword(dev string) (string, bool, bool, *dbus.Error) {
	pass, cancelled, ok := h.m.provider.AcquireDevicePassword(dev)
	return pass, cancelled, ok, nil
}
