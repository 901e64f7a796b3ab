package client

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the client configuration. Every block is optional; command
// line flags override whatever the file sets.
type Config struct {
	Server *ServerConnection `hcl:"server,block"`
	Player *PlayerSettings   `hcl:"player,block"`
	UI     *UISettings       `hcl:"ui,block"`
}

// ServerConnection locates the server.
type ServerConnection struct {
	URL string `hcl:"url,optional"`
}

// PlayerSettings carry the stored account name. Passwords are never
// written to the config file.
type PlayerSettings struct {
	Username string `hcl:"username,optional"`
}

// UISettings control client-side logging. The TUI owns the terminal, so
// log output goes to a file instead of stderr.
type UISettings struct {
	LogLevel string `hcl:"log_level,optional"`
	LogFile  string `hcl:"log_file,optional"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.normalize()
	return cfg
}

// LoadConfig loads client configuration from an HCL file. A missing file
// yields the defaults.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	cfg.normalize()
	return &cfg, nil
}

func (c *Config) normalize() {
	if c.Server == nil {
		c.Server = &ServerConnection{}
	}
	if c.Server.URL == "" {
		c.Server.URL = "http://localhost:8080"
	}

	if c.Player == nil {
		c.Player = &PlayerSettings{}
	}

	if c.UI == nil {
		c.UI = &UISettings{}
	}
	if c.UI.LogLevel == "" {
		c.UI.LogLevel = "warn"
	}
	if c.UI.LogFile == "" {
		c.UI.LogFile = "gammond-client.log"
	}
}
