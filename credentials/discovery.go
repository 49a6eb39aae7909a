package credentials

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/mudler/go-pluggable"

	"github.com/diskenc-io/agent/types"
)

// EventDiscoveryPassword is published to discovery plugins when a device
// passphrase is needed; a plugin answers with the passphrase in its response
// data.
const EventDiscoveryPassword pluggable.EventType = "discovery.password"

const discoveryPrefix = "diskenc-discovery"

// defaultDiscoveryPaths is where the agent looks for discovery plugins.
var defaultDiscoveryPaths = []string{
	"/usr/lib/diskenc/discovery",
	"/etc/diskenc/discovery",
}

// DiscoveryPayload is what discovery plugins receive on stdin.
type DiscoveryPayload struct {
	Device string `json:"device"`
	PIN    string `json:"pin,omitempty"`
}

// DiscoveryDeriver asks external discovery plugins for a device passphrase.
// This covers setups where the secret lives outside this machine's TPM, such
// as a remote KMS, and it is the only path that can answer for PIN-bound
// devices, since the plugin owns the policy session.
type DiscoveryDeriver struct {
	paths []string
	log   types.AgentLogger
}

func NewDiscoveryDeriver(log types.AgentLogger, paths ...string) *DiscoveryDeriver {
	if len(paths) == 0 {
		paths = defaultDiscoveryPaths
	}
	return &DiscoveryDeriver{paths: paths, log: log}
}

func (d *DiscoveryDeriver) Derive(dev, pin string) (string, error) {
	m := pluggable.NewManager([]pluggable.EventType{EventDiscoveryPassword})
	m.Autoload(discoveryPrefix, d.paths...).Register()

	var password string
	var derr error
	m.Response(EventDiscoveryPassword, func(p *pluggable.Plugin, r *pluggable.EventResponse) {
		d.log.Logger.Debug().Str("from", p.Name).Str("at", p.Executable).Msg("Received discovery response")
		if r.Errored() {
			derr = fmt.Errorf("discovery provider %s: %s", p.Name, r.Error)
			return
		}
		if r.Data != "" {
			password = r.Data
		}
	})

	if _, err := m.Publish(EventDiscoveryPassword, DiscoveryPayload{Device: dev, PIN: pin}); err != nil {
		return "", err
	}
	if derr != nil {
		return "", derr
	}
	// No plugins installed, or none felt responsible: not an error, the
	// caller falls through to the next deriver.
	return password, nil
}

// ChainDeriver tries each deriver in order until one yields a passphrase.
// Errors are collected; they only surface when no deriver produced anything.
type ChainDeriver []Deriver

func (c ChainDeriver) Derive(dev, pin string) (string, error) {
	var errs error
	for _, d := range c {
		pass, err := d.Derive(dev, pin)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		if pass != "" {
			return pass, nil
		}
	}
	return "", errs
}
