// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package config implements the sgidisk configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/siderolabs/gen/xslices"
	"github.com/siderolabs/go-pointer"
	"gopkg.in/yaml.v3"

	"github.com/siderolabs/sgidisk/pkg/disklabel/sgi"
)

// DefaultLockTimeout is how long the device lock is waited for by default.
const DefaultLockTimeout = 10 * time.Second

// Config is the sgidisk configuration.
//
// Unset optional fields are nil, command line flags override them.
type Config struct {
	Device      string         `yaml:"device,omitempty"`
	Geometry    Geometry       `yaml:"geometry,omitempty"`
	Debug       *bool          `yaml:"debug,omitempty"`
	LogLevel    string         `yaml:"logLevel,omitempty"`
	LockTimeout *time.Duration `yaml:"lockTimeout,omitempty"`

	// BootFile is set on labels built by the create command.
	BootFile string `yaml:"bootFile,omitempty"`
	// Info enables the info block on labels built by the create command.
	Info *bool `yaml:"info,omitempty"`
	// LegacyPartitions are kept in the first slots of labels built by the create command.
	LegacyPartitions []LegacyPartition `yaml:"legacyPartitions,omitempty"`
}

// Geometry is the device geometry.
type Geometry struct {
	Heads     *uint32 `yaml:"heads,omitempty"`
	Sectors   *uint32 `yaml:"sectors,omitempty"`
	Cylinders *uint32 `yaml:"cylinders,omitempty"`
}

// LegacyPartition is a partition carried over into a new label.
type LegacyPartition struct {
	Start   uint32   `yaml:"start"`
	Sectors uint32   `yaml:"sectors"`
	Type    SystemID `yaml:"type"`
}

// SystemID is a partition type given as a number or a name.
type SystemID sgi.SystemID

// UnmarshalYAML implements yaml.Unmarshaler.
func (id *SystemID) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: partition type must be a number or a name", node.Line)
	}

	parsed, err := sgi.ParseSystemID(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}

	*id = SystemID(parsed)

	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (id SystemID) MarshalYAML() (any, error) {
	return fmt.Sprintf("%#x", uint32(id)), nil
}

// Default returns the configuration used without a configuration file.
func Default() *Config {
	return &Config{
		LogLevel:    "warn",
		LockTimeout: pointer.To(DefaultLockTimeout),
	}
}

// Load reads the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("error loading config %q: %w", path, err)
	}

	return cfg, nil
}

// Parse decodes the configuration on top of the defaults.
//
// Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.Device == "" {
		result = multierror.Append(result, errors.New("device is required"))
	}

	for _, field := range []struct {
		name  string
		value *uint32
	}{
		{"heads", c.Geometry.Heads},
		{"sectors", c.Geometry.Sectors},
		{"cylinders", c.Geometry.Cylinders},
	} {
		if v := field.value; v != nil && (*v == 0 || *v > math.MaxUint16) {
			result = multierror.Append(result, fmt.Errorf("geometry %s must be in range 1-%d, got %d", field.name, math.MaxUint16, *v))
		}
	}

	if c.BootFile != "" {
		if err := sgi.CheckBootFile(c.BootFile); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if len(c.LegacyPartitions) > sgi.NoLabelPartitions {
		result = multierror.Append(result, fmt.Errorf("at most %d legacy partitions are supported, got %d", sgi.NoLabelPartitions, len(c.LegacyPartitions)))
	}

	if c.LockTimeout != nil && *c.LockTimeout < 0 {
		result = multierror.Append(result, fmt.Errorf("lock timeout must not be negative: %s", *c.LockTimeout))
	}

	return result.ErrorOrNil()
}

// SGIGeometry returns the geometry, unset fields are zero.
func (c *Config) SGIGeometry() sgi.Geometry {
	return sgi.Geometry{
		Heads:     pointer.SafeDeref(c.Geometry.Heads),
		Sectors:   pointer.SafeDeref(c.Geometry.Sectors),
		Cylinders: pointer.SafeDeref(c.Geometry.Cylinders),
	}
}

// Legacy returns the legacy partitions.
func (c *Config) Legacy() []sgi.LegacyPartition {
	return xslices.Map(c.LegacyPartitions, func(p LegacyPartition) sgi.LegacyPartition {
		return sgi.LegacyPartition{
			Start:    p.Start,
			Sectors:  p.Sectors,
			SystemID: sgi.SystemID(p.Type),
		}
	})
}

// DebugEnabled reports whether the debug checks are enabled.
func (c *Config) DebugEnabled() bool {
	return pointer.SafeDeref(c.Debug)
}

// InfoEnabled reports whether new labels get an info block.
func (c *Config) InfoEnabled() bool {
	return pointer.SafeDeref(c.Info)
}

// LockTimeoutOrDefault returns the lock timeout.
func (c *Config) LockTimeoutOrDefault() time.Duration {
	if c.LockTimeout == nil {
		return DefaultLockTimeout
	}

	return *c.LockTimeout
}

// Bytes encodes the configuration.
func (c *Config) Bytes() ([]byte, error) {
	return yaml.Marshal(c)
}
