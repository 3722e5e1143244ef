// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config loads the optional JSON configuration file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/marron9999/sc3-mbitmart/pkg/mbituart"
	"github.com/rs/zerolog"
)

// ConnectorType identifies which transport backend should be used.
type ConnectorType string

const (
	ConnectorSerial    ConnectorType = "serial"
	ConnectorWebSocket ConnectorType = "websocket"
	ConnectorBluetooth ConnectorType = "bluetooth"

	DefaultSerialBaud    = 115200
	DefaultLogLevel      = "info"
	DefaultSubjectPrefix = "microbit"
	DefaultRedisKey      = "microbit:state"
)

// ConnectionConfig contains connector-specific connection parameters.
type ConnectionConfig struct {
	Connector   ConnectorType `json:"connector"`
	Port        string        `json:"port"`
	Baud        int           `json:"baud"`
	URL         string        `json:"url"`
	Username    string        `json:"username"`
	NoSSLVerify bool          `json:"no_ssl_verify"`
	Binary      bool          `json:"binary"`
	Stream      bool          `json:"stream"`
	BLEAddress  string        `json:"ble_address"`
	BLEAdapter  string        `json:"ble_adapter"`
}

// LoggingConfig defines runtime logging behavior.
type LoggingConfig struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

// LinkConfig tunes the protocol adapter.
type LinkConfig struct {
	VectorPolicy string `json:"vector_policy"`
}

// BridgeConfig configures the NATS/Redis bridge.
type BridgeConfig struct {
	NATSURL       string `json:"nats_url"`
	SubjectPrefix string `json:"subject_prefix"`
	RedisAddr     string `json:"redis_addr"`
	RedisKey      string `json:"redis_key"`
}

// AppConfig is the root configuration.
type AppConfig struct {
	Connection ConnectionConfig `json:"connection"`
	Logging    LoggingConfig    `json:"logging"`
	Link       LinkConfig       `json:"link"`
	Bridge     BridgeConfig     `json:"bridge"`
}

// Default returns the configuration used when no file is present.
func Default() AppConfig {
	return AppConfig{
		Connection: ConnectionConfig{
			Connector: ConnectorSerial,
			Baud:      DefaultSerialBaud,
		},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
		},
		Link: LinkConfig{
			VectorPolicy: mbituart.VectorZeroFill.String(),
		},
		Bridge: BridgeConfig{
			SubjectPrefix: DefaultSubjectPrefix,
			RedisKey:      DefaultRedisKey,
		},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (AppConfig, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return AppConfig{}, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("decode config json: %w", err)
	}

	cfg.FillMissingDefaults()
	return cfg, nil
}

// FillMissingDefaults replaces zero values with defaults and infers the
// connector from whichever address is set.
func (c *AppConfig) FillMissingDefaults() {
	if c.Connection.Connector == "" {
		switch {
		case c.Connection.URL != "":
			c.Connection.Connector = ConnectorWebSocket
		case c.Connection.BLEAddress != "":
			c.Connection.Connector = ConnectorBluetooth
		default:
			c.Connection.Connector = ConnectorSerial
		}
	}
	if c.Connection.Baud <= 0 {
		c.Connection.Baud = DefaultSerialBaud
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Link.VectorPolicy == "" {
		c.Link.VectorPolicy = mbituart.VectorZeroFill.String()
	}
	if c.Bridge.SubjectPrefix == "" {
		c.Bridge.SubjectPrefix = DefaultSubjectPrefix
	}
	if c.Bridge.RedisKey == "" {
		c.Bridge.RedisKey = DefaultRedisKey
	}
}

// Validate checks the connection for the selected connector and the enums.
func (c AppConfig) Validate() error {
	switch c.Connection.Connector {
	case ConnectorSerial:
		if strings.TrimSpace(c.Connection.Port) == "" {
			return errors.New("serial port is required")
		}
		if c.Connection.Baud <= 0 {
			return errors.New("serial baud must be positive")
		}
	case ConnectorWebSocket:
		if strings.TrimSpace(c.Connection.URL) == "" {
			return errors.New("websocket url is required")
		}
	case ConnectorBluetooth:
		if strings.TrimSpace(c.Connection.BLEAddress) == "" {
			return errors.New("bluetooth address is required")
		}
	default:
		return fmt.Errorf("unknown connector: %s", c.Connection.Connector)
	}

	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Logging.Level, err)
	}
	if _, ok := mbituart.ParseVectorPolicy(c.Link.VectorPolicy); !ok {
		return fmt.Errorf("invalid vector_policy %q (use zero_fill or retain)", c.Link.VectorPolicy)
	}
	return nil
}

// VectorPolicy returns the parsed link.vector_policy.
func (c AppConfig) VectorPolicy() mbituart.VectorPolicy {
	p, _ := mbituart.ParseVectorPolicy(c.Link.VectorPolicy)
	return p
}
