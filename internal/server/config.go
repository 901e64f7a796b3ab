package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the complete server configuration. Every block is optional in
// the HCL file; missing blocks and fields fall back to the defaults below.
type Config struct {
	Server  *ServerSettings  `hcl:"server,block"`
	Game    *GameSettings    `hcl:"game,block"`
	Gnubg   *GnubgSettings   `hcl:"gnubg,block"`
	Store   *StoreSettings   `hcl:"store,block"`
	Auth    *AuthSettings    `hcl:"auth,block"`
	Rewards *RewardsSettings `hcl:"rewards,block"`
}

// ServerSettings contains the listen address and logging options.
type ServerSettings struct {
	Addr      string `hcl:"addr,optional"`
	LogLevel  string `hcl:"log_level,optional"`
	LogFile   string `hcl:"log_file,optional"`
	AssetsDir string `hcl:"assets_dir,optional"`
}

// GameSettings contains the session timing knobs, all in milliseconds.
type GameSettings struct {
	DisconnectTimeoutMS int `hcl:"disconnect_timeout_ms,optional"`
	ThinkMinMS          int `hcl:"think_min_ms,optional"`
	ThinkMaxMS          int `hcl:"think_max_ms,optional"`
	SetupDelayMS        int `hcl:"setup_delay_ms,optional"`
	FirstRollPacingMS   int `hcl:"first_roll_pacing_ms,optional"`
}

// GnubgSettings locates the engine binary.
type GnubgSettings struct {
	Binary    string   `hcl:"binary,optional"`
	Args      []string `hcl:"args,optional"`
	TimeoutMS int      `hcl:"timeout_ms,optional"`
}

// StoreSettings locates the user database and the stats log.
type StoreSettings struct {
	DBPath    string `hcl:"db_path,optional"`
	StatsPath string `hcl:"stats_path,optional"`
}

// AuthSettings configures token signing. An empty secret makes the server
// generate an ephemeral one at startup.
type AuthSettings struct {
	Secret       string `hcl:"secret,optional"`
	TokenTTLHour int    `hcl:"token_ttl_hours,optional"`
}

// RewardsSettings are the stat deltas applied when a game ends.
type RewardsSettings struct {
	EloWin   int `hcl:"elo_win,optional"`
	EloLoss  int `hcl:"elo_loss,optional"`
	MoneyWin int `hcl:"money_win,optional"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.normalize()
	return cfg
}

// LoadConfig loads configuration from an HCL file. A missing file yields
// the defaults.
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

// normalize fills missing blocks and fields with defaults.
func (c *Config) normalize() {
	if c.Server == nil {
		c.Server = &ServerSettings{}
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}

	if c.Game == nil {
		c.Game = &GameSettings{}
	}
	if c.Game.DisconnectTimeoutMS == 0 {
		c.Game.DisconnectTimeoutMS = 60_000
	}
	if c.Game.ThinkMinMS == 0 {
		c.Game.ThinkMinMS = 500
	}
	if c.Game.ThinkMaxMS == 0 {
		c.Game.ThinkMaxMS = 6_000
	}
	if c.Game.SetupDelayMS == 0 {
		c.Game.SetupDelayMS = 1_000
	}
	if c.Game.FirstRollPacingMS == 0 {
		c.Game.FirstRollPacingMS = 1_500
	}

	if c.Gnubg == nil {
		c.Gnubg = &GnubgSettings{}
	}
	if c.Gnubg.Binary == "" {
		c.Gnubg.Binary = "gnubg"
	}
	if c.Gnubg.Args == nil {
		c.Gnubg.Args = []string{"--quiet", "--tty"}
	}
	if c.Gnubg.TimeoutMS == 0 {
		c.Gnubg.TimeoutMS = 10_000
	}

	if c.Store == nil {
		c.Store = &StoreSettings{}
	}
	if c.Store.DBPath == "" {
		c.Store.DBPath = "gammond.db"
	}
	if c.Store.StatsPath == "" {
		c.Store.StatsPath = "games.log"
	}

	if c.Auth == nil {
		c.Auth = &AuthSettings{}
	}
	if c.Auth.TokenTTLHour == 0 {
		c.Auth.TokenTTLHour = 24
	}

	if c.Rewards == nil {
		c.Rewards = &RewardsSettings{EloWin: 1, EloLoss: -1, MoneyWin: 10}
	}
	if c.Rewards.EloWin == 0 {
		c.Rewards.EloWin = 1
	}
	if c.Rewards.EloLoss == 0 {
		c.Rewards.EloLoss = -1
	}
	if c.Rewards.MoneyWin == 0 {
		c.Rewards.MoneyWin = 10
	}
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr must not be empty")
	}
	if c.Game.ThinkMinMS > c.Game.ThinkMaxMS {
		return fmt.Errorf("think_min_ms %d exceeds think_max_ms %d", c.Game.ThinkMinMS, c.Game.ThinkMaxMS)
	}
	if c.Game.DisconnectTimeoutMS <= 0 {
		return fmt.Errorf("disconnect_timeout_ms must be positive")
	}
	if c.Gnubg.Binary == "" {
		return fmt.Errorf("gnubg binary must not be empty")
	}
	if c.Auth.TokenTTLHour <= 0 {
		return fmt.Errorf("token_ttl_hours must be positive")
	}
	if c.Rewards.EloWin < 0 {
		return fmt.Errorf("elo_win must not be negative")
	}
	return nil
}

// DisconnectTimeout returns the grace period as a duration.
func (c *Config) DisconnectTimeout() time.Duration {
	return time.Duration(c.Game.DisconnectTimeoutMS) * time.Millisecond
}

// ThinkMin returns the minimum bot think delay.
func (c *Config) ThinkMin() time.Duration {
	return time.Duration(c.Game.ThinkMinMS) * time.Millisecond
}

// ThinkMax returns the maximum bot think delay.
func (c *Config) ThinkMax() time.Duration {
	return time.Duration(c.Game.ThinkMaxMS) * time.Millisecond
}

// SetupDelay returns the pause between the setup payloads and the opening
// roll in PvP.
func (c *Config) SetupDelay() time.Duration {
	return time.Duration(c.Game.SetupDelayMS) * time.Millisecond
}

// FirstRollPacing returns the pause between opening-roll tie retries.
func (c *Config) FirstRollPacing() time.Duration {
	return time.Duration(c.Game.FirstRollPacingMS) * time.Millisecond
}

// EngineTimeout returns the per-call engine budget.
func (c *Config) EngineTimeout() time.Duration {
	return time.Duration(c.Gnubg.TimeoutMS) * time.Millisecond
}

// TokenTTL returns the token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLHour) * time.Hour
}
