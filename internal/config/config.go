package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Storage  StorageConfig  `mapstructure:"storage"  validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// ShutdownTimeoutSeconds bounds graceful shutdown of the HTTP server.
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds" validate:"gte=0"`
}

// DatabaseConfig contains the remote relational store settings.
// URL is only required when Storage.Mode is "remote".
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// LLMConfig contains the generative backend settings. An empty API key
// disables the oracle and the built-in fallbacks are used instead.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	ModelName    string `mapstructure:"model_name"     validate:"required"`
	// Temperature is passed through to the model unchanged.
	Temperature float32 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	// MaxRetries is the number of retries after the first attempt for
	// transient failures.
	MaxRetries        int `mapstructure:"max_retries"         validate:"gte=0,lte=10"`
	RetryDelaySeconds int `mapstructure:"retry_delay_seconds" validate:"gte=0,lte=60"`
}

// StorageConfig selects the progress persistence backend.
type StorageConfig struct {
	Mode string `mapstructure:"mode" validate:"required,oneof=local remote"`
	// LocalPath is the sqlite file backing local mode. ":memory:" is accepted.
	LocalPath string `mapstructure:"local_path" validate:"required"`
}

// IsRemote reports whether the remote store was selected.
func (c *Config) IsRemote() bool {
	return c.Storage.Mode == "remote"
}
