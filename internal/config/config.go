package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth"      validate:"required"`
	LLM       LLMConfig       `mapstructure:"llm"       validate:"required"`
	Embedding EmbeddingConfig `mapstructure:"embedding" validate:"required"`
	Exam      ExamConfig      `mapstructure:"exam"      validate:"required"`
}

// ServerConfig contains all HTTP server related settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// ShutdownTimeoutSeconds bounds how long graceful shutdown waits for
	// in-flight requests before forcing the server down.
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds" validate:"required,gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`

	// TokenLifetimeMinutes is the validity window of access tokens.
	TokenLifetimeMinutes int `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`

	// RefreshTokenLifetimeMinutes is the validity window of refresh tokens.
	RefreshTokenLifetimeMinutes int `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gt=0"`

	// BcryptCost controls the work factor used when hashing passwords.
	BcryptCost int `mapstructure:"bcrypt_cost" validate:"required,gte=4,lte=31"`
}

// LLMConfig contains settings for the examiner policy generator.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName    string `mapstructure:"model_name"     validate:"required"`

	// TimeoutSeconds bounds each policy/drill generation call. Expirations
	// degrade to the deterministic fallback rather than failing the request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" validate:"required,gt=0"`
}

// EmbeddingConfig contains settings for the embedding provider used by
// coherence scoring. The provider speaks the OpenAI embeddings API.
type EmbeddingConfig struct {
	APIKey  string `mapstructure:"api_key"  validate:"required"`
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
	Model   string `mapstructure:"model"    validate:"required"`

	// Dimensions is the expected embedding vector width. Degraded responses
	// are replaced with a zero vector of this size.
	Dimensions int `mapstructure:"dimensions" validate:"required,gt=0"`

	// TimeoutSeconds bounds each embedding call.
	TimeoutSeconds int `mapstructure:"timeout_seconds" validate:"required,gt=0"`
}

// ExamConfig contains tunables for exam session progression.
type ExamConfig struct {
	// Attempt quotas per exam part. An exam session completes once the
	// part three quota is met.
	PartOneAttempts   int `mapstructure:"part_one_attempts"   validate:"required,gt=0"`
	PartTwoAttempts   int `mapstructure:"part_two_attempts"   validate:"required,gt=0"`
	PartThreeAttempts int `mapstructure:"part_three_attempts" validate:"required,gt=0"`
}
