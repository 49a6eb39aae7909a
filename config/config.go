// Package config loads the agent configuration: bus endpoints, TPM indexes
// and logging. Everything has a working default so a missing file is fine.
package config

import (
	"fmt"
	"os"

	vfs "github.com/twpayne/go-vfs/v4"
	"gopkg.in/yaml.v3"

	"github.com/diskenc-io/agent/bus"
)

// DefaultPath is where the agent looks for its configuration.
const DefaultPath = "/etc/diskenc/agent.yaml"

// Endpoint names one service on the bus.
type Endpoint struct {
	BusName    string `yaml:"bus_name"`
	ObjectPath string `yaml:"object_path"`
	Interface  string `yaml:"interface"`
}

// TPM carries the NV indexes the daemon seals passphrases under.
type TPM struct {
	NVIndex string `yaml:"nv_index"`
	CIndex  string `yaml:"c_index"`
	Device  string `yaml:"device"`
}

type Config struct {
	LogLevel       string   `yaml:"log_level"`
	Daemon         Endpoint `yaml:"daemon"`
	Agent          Endpoint `yaml:"agent"`
	Session        Endpoint `yaml:"session"`
	TPM            TPM      `yaml:"tpm"`
	DiscoveryPaths []string `yaml:"discovery_paths"`
}

func Default() Config {
	return Config{
		LogLevel: "info",
		Daemon: Endpoint{
			BusName:    bus.DefaultDaemonBusName,
			ObjectPath: string(bus.DefaultDaemonObjectPath),
			Interface:  bus.DefaultDaemonInterface,
		},
		Agent: Endpoint{
			BusName:    bus.DefaultAgentBusName,
			ObjectPath: string(bus.DefaultAgentObjectPath),
			Interface:  bus.DefaultAgentInterface,
		},
		Session: Endpoint{
			BusName:    bus.DefaultSessionBusName,
			ObjectPath: string(bus.DefaultSessionObjectPath),
			Interface:  bus.DefaultSessionInterface,
		},
	}
}

// Load reads the YAML file at path, layering it over the defaults. A missing
// file is not an error; a malformed one is.
func Load(fsys vfs.FS, path string) (Config, error) {
	cfg := Default()

	data, err := fsys.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}
