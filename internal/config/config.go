package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Client holds all configuration for the floclient process: where the
// control-plane lives, the credentials it presents, and the local LAN
// proxy's own tunables (spec.md §6, §9).
type Client struct {
	// Control-plane endpoint
	Domain  string `yaml:"domain"`
	Port    int    `yaml:"port"`
	Version int32  `yaml:"version"`
	Token   string `yaml:"token"`

	// LAN proxy listener
	LobbySocketPort int `yaml:"lobby_socket_port"`

	// Logging
	LogLevel string `yaml:"log_level"` // debug, info, warn, error (default: info)

	// Node dial tunable
	NodeConnectTimeout time.Duration `yaml:"node_connect_timeout"`

	// Control-plane reconnection policy
	ReconnectMaxAttempts int `yaml:"reconnect_max_attempts"` // 0 = unlimited
}

// DefaultClient returns Client config with sensible defaults.
func DefaultClient() Client {
	return Client{
		Domain:               "lobby.flo.example",
		Port:                 9106,
		Version:              1,
		LobbySocketPort:      0, // 0 = OS-assigned ephemeral port
		LogLevel:             "info",
		NodeConnectTimeout:   5 * time.Second,
		ReconnectMaxAttempts: 0,
	}
}

// LoadClient loads client config from a YAML file. If the file doesn't
// exist, returns defaults. The FLOCLIENT_CONFIG environment variable, when
// set, overrides path.
func LoadClient(path string) (Client, error) {
	cfg := DefaultClient()

	if p := os.Getenv("FLOCLIENT_CONFIG"); p != "" {
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
