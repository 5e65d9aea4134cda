package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Discord   DiscordConfig   `yaml:"discord"`
	AI        AIConfig        `yaml:"ai"`
	Claude    ClaudeConfig    `yaml:"claude"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Pet       PetConfig       `yaml:"pet"`
	Store     StoreConfig     `yaml:"store"`
	Proactive ProactiveConfig `yaml:"proactive"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`
}

type AIConfig struct {
	Provider string `yaml:"provider"` // "claude", "gemini", or "" (auto-detect)
}

type DiscordConfig struct {
	BotToken  string   `yaml:"bot_token"`
	ChannelID string   `yaml:"channel_id"`
	OwnerIDs  []string `yaml:"owner_ids"`
}

type ClaudeConfig struct {
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	MaxTokens int64  `yaml:"max_tokens"`
	MaxTools  int    `yaml:"max_tool_iterations"`
	// Sliding window rate limiter
	RateLimit  int           `yaml:"rate_limit"`
	RateWindow time.Duration `yaml:"rate_window"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type PetConfig struct {
	Name         string        `yaml:"name"`    // used when hatching without onboarding
	Species      string        `yaml:"species"` // species ID for a fresh egg
	TickInterval time.Duration `yaml:"tick_interval"`
	SaveInterval time.Duration `yaml:"save_interval"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"` // "file" or "sqlite"
	Path   string `yaml:"path"`   // .json, .json.zst, or .db
}

type ProactiveConfig struct {
	Enabled          bool          `yaml:"enabled"`
	CheckInterval    time.Duration `yaml:"check_interval"`
	MorningHour      int           `yaml:"morning_hour"`
	DistressCooldown time.Duration `yaml:"distress_cooldown"`
}

type ServerConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	PushInterval time.Duration `yaml:"push_interval"`
}

type TelemetryConfig struct {
	Dir string `yaml:"dir"` // empty disables CSV output
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// DiscordEnabled reports whether enough is configured to connect the bot.
func (c *Config) DiscordEnabled() bool {
	return c.Discord.BotToken != "" && c.Discord.ChannelID != ""
}

func Load(path string) (*Config, error) {
	cfg := defaults()

	// Load .env file first (from same directory as binary, or working dir)
	loadDotEnv(".env")

	// Load YAML config if it exists
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// File doesn't exist, use defaults + env vars
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	applyEnv(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Env vars override config file (secrets live in .env or environment)
func applyEnv(cfg *Config) {
	if env := os.Getenv("DISCORD_BOT_TOKEN"); env != "" {
		cfg.Discord.BotToken = env
	}
	if env := os.Getenv("DISCORD_CHANNEL_ID"); env != "" {
		cfg.Discord.ChannelID = env
	}
	if env := os.Getenv("DISCORD_OWNER_IDS"); env != "" {
		// Comma-separated list of IDs
		var cleaned []string
		for _, id := range strings.Split(env, ",") {
			id = strings.TrimSpace(id)
			if id != "" {
				cleaned = append(cleaned, id)
			}
		}
		if len(cleaned) > 0 {
			cfg.Discord.OwnerIDs = cleaned
		}
	}
	if env := os.Getenv("ANTHROPIC_API_KEY"); env != "" {
		cfg.Claude.APIKey = env
	}
	if env := os.Getenv("GOOGLE_API_KEY"); env != "" {
		cfg.Gemini.APIKey = env
	}
	if env := os.Getenv("AI_PROVIDER"); env != "" {
		cfg.AI.Provider = env
	}
	if env := os.Getenv("TIDEPET_STORE_PATH"); env != "" {
		cfg.Store.Path = env
	}
}

// loadDotEnv reads a .env file and sets env vars that aren't already set.
func loadDotEnv(path string) {
	f, err := os.Open(path)
	if err != nil {
		return // no .env, that's fine
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)

		// Strip surrounding quotes
		if len(val) >= 2 {
			if (val[0] == '"' && val[len(val)-1] == '"') ||
				(val[0] == '\'' && val[len(val)-1] == '\'') {
				val = val[1 : len(val)-1]
			}
		}

		// Only set if not already in environment
		if os.Getenv(key) == "" && val != "" {
			os.Setenv(key, val)
		}
	}
}

func defaults() *Config {
	return &Config{
		Claude: ClaudeConfig{
			Model:      "claude-sonnet-4-5-20250929",
			MaxTokens:  512,
			MaxTools:   3,
			RateLimit:  10,
			RateWindow: time.Minute,
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.5-flash",
		},
		Pet: PetConfig{
			Name:         "Flipper",
			Species:      "dolphin",
			TickInterval: time.Second,
			SaveInterval: 5 * time.Minute,
		},
		Store: StoreConfig{
			Driver: "file",
			Path:   "tidepet.json",
		},
		Proactive: ProactiveConfig{
			Enabled:          true,
			CheckInterval:    60 * time.Second,
			MorningHour:      8,
			DistressCooldown: 30 * time.Minute,
		},
		Server: ServerConfig{
			Enabled:      true,
			Addr:         "127.0.0.1:8742",
			PushInterval: 2 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func validate(cfg *Config) error {
	if cfg.Pet.TickInterval <= 0 {
		return fmt.Errorf("pet.tick_interval must be positive, got %s", cfg.Pet.TickInterval)
	}
	if cfg.Pet.SaveInterval <= 0 {
		return fmt.Errorf("pet.save_interval must be positive, got %s", cfg.Pet.SaveInterval)
	}
	switch cfg.Store.Driver {
	case "file", "sqlite":
	default:
		return fmt.Errorf("store.driver must be \"file\" or \"sqlite\", got %q", cfg.Store.Driver)
	}
	if cfg.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	if cfg.Proactive.Enabled && cfg.Proactive.CheckInterval <= 0 {
		return fmt.Errorf("proactive.check_interval must be positive, got %s", cfg.Proactive.CheckInterval)
	}
	if cfg.Server.Enabled && cfg.Server.PushInterval <= 0 {
		return fmt.Errorf("server.push_interval must be positive, got %s", cfg.Server.PushInterval)
	}
	if cfg.DiscordEnabled() && len(cfg.Discord.OwnerIDs) == 0 {
		return fmt.Errorf("missing DISCORD_OWNER_IDS: nobody would be allowed to care for the pet")
	}
	return nil
}
