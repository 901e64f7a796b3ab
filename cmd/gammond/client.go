package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/lox/gammond/internal/client"
	"github.com/lox/gammond/internal/tui"
)

// ClientCmd starts the terminal client.
type ClientCmd struct {
	Config   string `short:"c" default:"gammond-client.hcl" help:"Path to HCL configuration file"`
	Server   string `help:"Server URL (overrides config)"`
	Username string `help:"Account name (overrides config)"`
	Password string `help:"Account password"`
	Register bool   `help:"Create the account before logging in"`
	Token    string `help:"Use a pre-issued token instead of logging in"`
}

func (c *ClientCmd) Run() error {
	cfg, err := client.LoadConfig(c.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if c.Server != "" {
		cfg.Server.URL = c.Server
	}
	if c.Username != "" {
		cfg.Player.Username = c.Username
	}

	logger, closeLog, err := clientLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	runCfg := tui.RunConfig{
		ServerURL: cfg.Server.URL,
		Token:     c.Token,
		Username:  cfg.Player.Username,
		Logger:    logger,
	}

	if runCfg.Token == "" {
		if cfg.Player.Username == "" || c.Password == "" {
			return fmt.Errorf("username and password (or a token) are required")
		}
		var result *client.AuthResult
		if c.Register {
			result, err = client.Register(cfg.Server.URL, cfg.Player.Username, c.Password)
		} else {
			result, err = client.Login(cfg.Server.URL, cfg.Player.Username, c.Password)
		}
		if err != nil {
			return err
		}
		runCfg.Token = result.Token
		runCfg.Profile = result.Profile
	}

	return tui.Run(runCfg)
}

// clientLogger writes to the configured log file; the TUI owns the
// terminal, so nothing may log to stderr while it runs.
func clientLogger(cfg *client.Config) (*log.Logger, func(), error) {
	f, err := os.OpenFile(cfg.UI.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	logger := log.New(f)
	switch cfg.UI.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.WarnLevel)
	}
	return logger, func() { _ = f.Close() }, nil
}
