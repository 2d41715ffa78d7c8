// Package config provides Viper-based configuration loading for the combat simulation.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/warchief/internal/game/combat"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// SimulationConfig holds combat tuning and the arena tick rate.
type SimulationConfig struct {
	// TickRateHz is how many ticks per second the arena advances.
	TickRateHz int `mapstructure:"tick_rate_hz"`
	// GlobalCooldown is the action gate set after a normal ability completes.
	GlobalCooldown time.Duration `mapstructure:"global_cooldown"`
	// ComboWindow is how long a combo opener keeps the window open.
	ComboWindow time.Duration `mapstructure:"combo_window"`
	// PiercingWidth is the half-width of a piercing projectile's corridor.
	PiercingWidth float64 `mapstructure:"piercing_width"`
	// CombatTimeout is how long a combatant stays in combat after its last hit.
	CombatTimeout time.Duration `mapstructure:"combat_timeout"`
	// MaxSessionDuration bounds each session; zero means unbounded.
	MaxSessionDuration time.Duration `mapstructure:"max_session_duration"`
	// DefaultEndCondition is "first_death" or "party_wipe".
	DefaultEndCondition string `mapstructure:"default_end_condition"`
}

// Settings converts the tuning values to combat.Settings.
func (s SimulationConfig) Settings() combat.Settings {
	return combat.Settings{
		GlobalCooldown: s.GlobalCooldown,
		ComboWindow:    s.ComboWindow,
		PiercingWidth:  s.PiercingWidth,
		CombatTimeout:  s.CombatTimeout,
	}
}

// TickInterval returns the wall-clock duration of one tick.
//
// Precondition: TickRateHz > 0.
func (s SimulationConfig) TickInterval() time.Duration {
	return time.Second / time.Duration(s.TickRateHz)
}

// EndCondition parses DefaultEndCondition.
func (s SimulationConfig) EndCondition() (combat.EndCondition, error) {
	return combat.ParseEndCondition(s.DefaultEndCondition)
}

// ContentConfig locates the YAML and Lua content loaded at startup.
// Optional directories may be left empty.
type ContentConfig struct {
	AbilitiesDir  string `mapstructure:"abilities_dir"`
	OverridesFile string `mapstructure:"overrides_file"`
	StancesDir    string `mapstructure:"stances_dir"`
	GearDir       string `mapstructure:"gear_dir"`
	StrategiesDir string `mapstructure:"strategies_dir"`
	TemplatesDir  string `mapstructure:"templates_dir"`
	GoalsDir      string `mapstructure:"goals_dir"`
	ScriptsDir    string `mapstructure:"scripts_dir"`
	// MatchesFile lists the fights the arena stages.
	MatchesFile string `mapstructure:"matches_file"`
}

// ScriptingConfig holds Lua sandbox settings.
type ScriptingConfig struct {
	// InstructionLimit caps opcodes per hook call; 0 uses the sandbox default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// ArenaConfig controls the long-running arena service.
type ArenaConfig struct {
	// Rematch restarts a match as soon as it is decided.
	Rematch bool `mapstructure:"rematch"`
	// Archive persists each finished session's audit log to the database.
	Archive bool `mapstructure:"archive"`
}

// Config is the top-level application configuration.
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Content    ContentConfig    `mapstructure:"content"`
	Scripting  ScriptingConfig  `mapstructure:"scripting"`
	Arena      ArenaConfig      `mapstructure:"arena"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateDatabase(c.Database); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateSimulation(c.Simulation); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateContent(c.Content); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Scripting.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("scripting.instruction_limit must be >= 0, got %d", c.Scripting.InstructionLimit))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateSimulation(s SimulationConfig) error {
	var errs []string
	if s.TickRateHz < 1 || s.TickRateHz > 1000 {
		errs = append(errs, fmt.Sprintf("simulation.tick_rate_hz must be 1-1000, got %d", s.TickRateHz))
	}
	if s.GlobalCooldown < 0 {
		errs = append(errs, "simulation.global_cooldown must not be negative")
	}
	if s.ComboWindow < 0 {
		errs = append(errs, "simulation.combo_window must not be negative")
	}
	if s.PiercingWidth < 0 {
		errs = append(errs, "simulation.piercing_width must not be negative")
	}
	if s.CombatTimeout < 0 {
		errs = append(errs, "simulation.combat_timeout must not be negative")
	}
	if s.MaxSessionDuration < 0 {
		errs = append(errs, "simulation.max_session_duration must not be negative")
	}
	if _, err := s.EndCondition(); err != nil {
		errs = append(errs, fmt.Sprintf("simulation.default_end_condition must be one of [first_death, party_wipe], got %q", s.DefaultEndCondition))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	if c.AbilitiesDir == "" {
		return errors.New("content.abilities_dir must not be empty")
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with WARCHIEF_ prefix
	v.SetEnvPrefix("WARCHIEF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// NewViper returns a Viper instance with every default set and environment
// overrides enabled, for callers that do not read a file.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("WARCHIEF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "warchief")
	v.SetDefault("database.password", "warchief")
	v.SetDefault("database.name", "warchief")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("simulation.tick_rate_hz", 60)
	v.SetDefault("simulation.global_cooldown", "1s")
	v.SetDefault("simulation.combo_window", "2s")
	v.SetDefault("simulation.piercing_width", 1.0)
	v.SetDefault("simulation.combat_timeout", "5s")
	v.SetDefault("simulation.max_session_duration", "5m")
	v.SetDefault("simulation.default_end_condition", "first_death")

	v.SetDefault("content.abilities_dir", "content/abilities")
	v.SetDefault("content.stances_dir", "content/stances")
	v.SetDefault("content.gear_dir", "content/gear")
	v.SetDefault("content.strategies_dir", "content/strategies")
	v.SetDefault("content.templates_dir", "content/templates")
	v.SetDefault("content.goals_dir", "content/goals")
	v.SetDefault("content.scripts_dir", "content/scripts")
	v.SetDefault("content.matches_file", "content/arena/matches.yaml")

	v.SetDefault("arena.rematch", false)
	v.SetDefault("arena.archive", false)
}
