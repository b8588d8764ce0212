// Package config loads threadlink settings from HCL files.
package config

import (
	"fmt"
	"os"

	"github.com/coder/quartz"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/threadlink/rng"
)

// DefaultFile is the config file read when no path is given.
const DefaultFile = "threadlink.hcl"

// Config represents the complete threadlink configuration
type Config struct {
	Session *SessionSettings `hcl:"session,block"`
	Domains []DomainConfig   `hcl:"domain,block"`
	Server  *ServerSettings  `hcl:"server,block"`
}

// SessionSettings pins the seeds. Missing seeds are taken from the clock.
type SessionSettings struct {
	Seed     *uint64 `hcl:"seed,optional"`
	RootSeed *uint32 `hcl:"root_seed,optional"`
}

// DomainConfig declares a domain. Without a tag, the tag is derived from the name.
type DomainConfig struct {
	Name string  `hcl:"name,label"`
	Tag  *uint64 `hcl:"tag,optional"`
}

// ServerSettings configures the draw service
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	LogLevel string `hcl:"log_level,optional"`
	MaxDraws int    `hcl:"max_draws,optional"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads configuration from an HCL file. A missing file yields defaults.
func Load(filename string) (*Config, error) {
	src, err := os.ReadFile(filename)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(src, filename)
}

// Parse decodes configuration from HCL source
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Session == nil {
		c.Session = &SessionSettings{}
	}
	if c.Server == nil {
		c.Server = &ServerSettings{}
	}
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.MaxDraws == 0 {
		c.Server.MaxDraws = 4096
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Server.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.Server.LogLevel)
	}

	if c.Server.MaxDraws <= 0 {
		return fmt.Errorf("max draws must be positive")
	}

	seen := make(map[string]bool, len(c.Domains))
	for _, d := range c.Domains {
		if d.Name == "" {
			return fmt.Errorf("domain name cannot be empty")
		}
		if seen[d.Name] {
			return fmt.Errorf("domain %q declared more than once", d.Name)
		}
		seen[d.Name] = true
	}

	return nil
}

// Registry returns the built-in domains plus those declared in the file.
func (c *Config) Registry() (*rng.Registry, error) {
	reg := rng.NewRegistry()
	for _, d := range c.Domains {
		var err error
		if d.Tag != nil {
			err = reg.Register(d.Name, rng.Domain(*d.Tag))
		} else {
			_, err = reg.RegisterName(d.Name)
		}
		if err != nil {
			return nil, fmt.Errorf("domain %q: %w", d.Name, err)
		}
	}
	return reg, nil
}

// ResolveSeeds returns the session and root seeds. When the session seed is
// not configured it is taken from the clock, and configured is false. An
// unset root seed is derived from the session seed.
func (c *Config) ResolveSeeds(clock quartz.Clock) (seed uint64, root uint32, configured bool) {
	if c.Session.Seed != nil {
		seed = *c.Session.Seed
		configured = true
	} else {
		seed = uint64(clock.Now().UnixNano())
	}

	if c.Session.RootSeed != nil {
		root = *c.Session.RootSeed
	} else {
		root = uint32(rng.Mix64(seed))
	}
	return seed, root, configured
}
