package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	RCON      RCONConfig      `yaml:"rcon"`
	Minecraft MinecraftConfig `yaml:"minecraft"`
	Refresh   RefreshConfig   `yaml:"refresh"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
	// FrontendDir overrides the embedded frontend with files from disk.
	FrontendDir string `yaml:"frontend_dir"`
	// AllowedOrigins extends the websocket origin check beyond same-host
	// and loopback origins.
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxWSClients   int      `yaml:"max_ws_clients"`
}

type AuthConfig struct {
	Username string `yaml:"username"`
	// Password is either plain text or a bcrypt hash.
	Password string `yaml:"password"`
}

type RCONConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	Password       string        `yaml:"password"`
	DialTimeout    time.Duration `yaml:"dial_timeout"`
	CommandTimeout time.Duration `yaml:"command_timeout"`
}

type MinecraftConfig struct {
	ServerPath     string `yaml:"server_path"`
	ModsPath       string `yaml:"mods_path"`
	AddonExtension string `yaml:"addon_extension"`
	// ProcessMatch, when set, is matched against local process command lines
	// to report the game server's uptime.
	ProcessMatch string `yaml:"process_match"`
}

type RefreshConfig struct {
	Interval         time.Duration `yaml:"interval"`
	FailureThreshold int           `yaml:"failure_threshold"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         3000,
			Host:         "0.0.0.0",
			MaxWSClients: 32,
		},
		RCON: RCONConfig{
			DialTimeout:    5 * time.Second,
			CommandTimeout: 5 * time.Second,
		},
		Minecraft: MinecraftConfig{
			AddonExtension: ".jar",
		},
		Refresh: RefreshConfig{
			Interval:         5 * time.Second,
			FailureThreshold: 3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the YAML file at path on top of the defaults and then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	if err := num("PORT", &c.Server.Port); err != nil {
		return err
	}
	str("ADMIN_USERNAME", &c.Auth.Username)
	str("ADMIN_PASSWORD", &c.Auth.Password)
	str("RCON_HOST", &c.RCON.Host)
	if err := num("RCON_PORT", &c.RCON.Port); err != nil {
		return err
	}
	str("RCON_PASSWORD", &c.RCON.Password)
	str("MODS_PATH", &c.Minecraft.ModsPath)
	str("SERVER_PATH", &c.Minecraft.ServerPath)
	return nil
}

// Validate reports every required setting that is missing.
func (c *Config) Validate() error {
	var missing []string
	if c.Auth.Username == "" {
		missing = append(missing, "ADMIN_USERNAME")
	}
	if c.Auth.Password == "" {
		missing = append(missing, "ADMIN_PASSWORD")
	}
	if c.RCON.Host == "" {
		missing = append(missing, "RCON_HOST")
	}
	if c.RCON.Port <= 0 {
		missing = append(missing, "RCON_PORT")
	}
	if c.RCON.Password == "" {
		missing = append(missing, "RCON_PASSWORD")
	}
	if c.Minecraft.ModsPath == "" {
		missing = append(missing, "MODS_PATH")
	}
	if c.Minecraft.ServerPath == "" {
		missing = append(missing, "SERVER_PATH")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	if c.Refresh.Interval <= 0 {
		return fmt.Errorf("refresh.interval must be positive, got %s", c.Refresh.Interval)
	}
	return nil
}

// RCONAddr returns the host:port of the remote console.
func (c *Config) RCONAddr() string {
	return net.JoinHostPort(c.RCON.Host, strconv.Itoa(c.RCON.Port))
}

// ListenAddr returns the host:port the panel listens on.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
