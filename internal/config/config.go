package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Machine MachineConfig `mapstructure:"machine"`
	Recipes RecipesConfig `mapstructure:"recipes"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Journal JournalConfig `mapstructure:"journal"`
}

type ServerConfig struct {
	HTTPPort        int           `mapstructure:"http_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type MachineConfig struct {
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	PublishInterval time.Duration `mapstructure:"publish_interval"`
	TickInterval    time.Duration `mapstructure:"tick_interval"`
	HeatingTicks    int           `mapstructure:"heating_ticks"`
	ResetTicks      int           `mapstructure:"reset_ticks"`
}

type RecipesConfig struct {
	Catalog     string   `mapstructure:"catalog"`
	SearchPaths []string `mapstructure:"search_paths"`
}

// Auth Configuration
type AuthConfig struct {
	JWTSecretEnv    string                   `mapstructure:"jwt_secret_env"`
	AccessTokenTTL  time.Duration            `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration            `mapstructure:"refresh_token_ttl"`
	Users           []UserCredential         `mapstructure:"users"`
	MachineTokens   []MachineTokenCredential `mapstructure:"machine_tokens"`
}

// UserCredential provisions an API user. PasswordHash is an Argon2id encoded
// hash, never a plaintext password.
type UserCredential struct {
	Username     string `mapstructure:"username"`
	PasswordHash string `mapstructure:"password_hash"`
	Role         string `mapstructure:"role"`
}

// MachineTokenCredential provisions a device token by its SHA-256 hash.
type MachineTokenCredential struct {
	Name      string `mapstructure:"name"`
	TokenHash string `mapstructure:"token_hash"`
	Role      string `mapstructure:"role"`
}

type JournalConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
}

func Load(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	// Defaults
	viper.SetDefault("server.http_port", 8080)
	viper.SetDefault("server.shutdown_timeout", "30s")
	viper.SetDefault("machine.poll_interval", "100ms")
	viper.SetDefault("machine.publish_interval", "1s")
	viper.SetDefault("machine.tick_interval", "1s")
	viper.SetDefault("machine.heating_ticks", 5)
	viper.SetDefault("machine.reset_ticks", 2)
	viper.SetDefault("recipes.catalog", "default")
	viper.SetDefault("recipes.search_paths", []string{"recipes"})

	// Auth Defaults
	viper.SetDefault("auth.jwt_secret_env", "JWT_SECRET")
	viper.SetDefault("auth.access_token_ttl", "60m")
	viper.SetDefault("auth.refresh_token_ttl", "168h")

	viper.SetDefault("journal.enabled", false)
	viper.SetDefault("journal.port", 5432)
	viper.SetDefault("journal.max_connections", 4)

	viper.AutomaticEnv()
	viper.SetEnvPrefix("BREWCORE")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func (j *JournalConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		j.User, j.Password, j.Host, j.Port, j.Database)
}

// JWT secret comes from the environment, never from the config file.
func (a *AuthConfig) GetJWTSecret() string {
	envVar := a.JWTSecretEnv
	if envVar == "" {
		envVar = "JWT_SECRET" // Fallback
	}

	secret := os.Getenv(envVar)
	if secret == "" {
		// Development fallback
		return "dev-secret-change-in-production-min-32-chars"
	}
	return secret
}

func (a *AuthConfig) IsProductionReady() bool {
	secret := a.GetJWTSecret()
	return secret != "dev-secret-change-in-production-min-32-chars" && len(secret) >= 32
}
