package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port                    string        `yaml:"port"`
	Env                     string        `yaml:"env"`
	LogLevel                string        `yaml:"log_level"`
	MetricsPort             string        `yaml:"metrics_port"`
	PostgresUrl             string        `yaml:"postgres_conn_str"`
	MongoURI                string        `yaml:"mongo_uri"`
	MongoDatabase           string        `yaml:"mongo_database"`
	RedisURL                string        `yaml:"redis_url"`
	NatsURL                 string        `yaml:"nats_url"`
	FirebaseCredentialsPath string        `yaml:"firebase_credentials_path"`
	JWTSecret               string        `yaml:"jwt_secret"`
	AuthMode                string        `yaml:"auth_mode"`
	StoreBackend            string        `yaml:"store_backend"`
	IdentitySource          string        `yaml:"identity_source"`
	PostSource              string        `yaml:"post_source"`
	PageDefaultLimit        int           `yaml:"page_default_limit"`
	PageMaxLimit            int           `yaml:"page_max_limit"`
	CommentMaxLength        int           `yaml:"comment_max_length"`
	IdentityCacheTTL        time.Duration `yaml:"identity_cache_ttl"`
	RateLimitRPS            float64       `yaml:"rate_limit_rps"`
	RateLimitBurst          int           `yaml:"rate_limit_burst"`
	StaticUsers             []string      `yaml:"static_users"`
	StaticPosts             []string      `yaml:"static_posts"`
}

// Defaults are the values used when neither the config file nor the
// environment sets a key.
func Defaults() *Config {
	return &Config{
		Port:             "8080",
		Env:              "development",
		LogLevel:         "info",
		MetricsPort:      "9090",
		MongoDatabase:    "nano_midea",
		AuthMode:         "firebase",
		StoreBackend:     "postgres",
		IdentitySource:   "firebase",
		PostSource:       "mongo",
		PageDefaultLimit: 20,
		PageMaxLimit:     100,
		CommentMaxLength: 500,
		IdentityCacheTTL: 5 * time.Minute,
		RateLimitRPS:     10,
		RateLimitBurst:   20,
	}
}

// Load reads .env when present, then the YAML file named by CONFIG_FILE, then
// the process environment. Later sources win.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFile(os.Getenv("CONFIG_FILE"))
}

// LoadFile is Load with an explicit YAML path. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Port = getEnv("PORT", c.Port)
	c.Env = getEnv("ENV", c.Env)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.MetricsPort = getEnv("METRICS_PORT", c.MetricsPort)
	c.PostgresUrl = getEnv("POSTGRES_CONN_STR", c.PostgresUrl)
	c.MongoURI = getEnv("MONGO_URI", c.MongoURI)
	c.MongoDatabase = getEnv("MONGO_DATABASE", c.MongoDatabase)
	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)
	c.NatsURL = getEnv("NATS_URL", c.NatsURL)
	c.FirebaseCredentialsPath = getEnv("FIREBASE_CREDENTIALS_PATH", c.FirebaseCredentialsPath)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.AuthMode = getEnv("AUTH_MODE", c.AuthMode)
	c.StoreBackend = getEnv("STORE_BACKEND", c.StoreBackend)
	c.IdentitySource = getEnv("IDENTITY_SOURCE", c.IdentitySource)
	c.PostSource = getEnv("POST_SOURCE", c.PostSource)
	if v := os.Getenv("STATIC_USERS"); v != "" {
		c.StaticUsers = splitList(v)
	}
	if v := os.Getenv("STATIC_POSTS"); v != "" {
		c.StaticPosts = splitList(v)
	}

	var err error
	if c.PageDefaultLimit, err = getEnvInt("PAGE_DEFAULT_LIMIT", c.PageDefaultLimit); err != nil {
		return err
	}
	if c.PageMaxLimit, err = getEnvInt("PAGE_MAX_LIMIT", c.PageMaxLimit); err != nil {
		return err
	}
	if c.CommentMaxLength, err = getEnvInt("COMMENT_MAX_LENGTH", c.CommentMaxLength); err != nil {
		return err
	}
	if c.RateLimitBurst, err = getEnvInt("RATE_LIMIT_BURST", c.RateLimitBurst); err != nil {
		return err
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if c.RateLimitRPS, err = strconv.ParseFloat(v, 64); err != nil {
			return fmt.Errorf("RATE_LIMIT_RPS: %w", err)
		}
	}
	if v := os.Getenv("IDENTITY_CACHE_TTL"); v != "" {
		if c.IdentityCacheTTL, err = time.ParseDuration(v); err != nil {
			return fmt.Errorf("IDENTITY_CACHE_TTL: %w", err)
		}
	}
	return nil
}

// Validate checks the enumerated settings and the secrets each mode needs.
func (c *Config) Validate() error {
	switch c.AuthMode {
	case "firebase", "jwt":
	default:
		return fmt.Errorf("AUTH_MODE must be firebase or jwt, got %q", c.AuthMode)
	}
	if c.AuthMode == "jwt" && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when AUTH_MODE=jwt")
	}
	switch c.StoreBackend {
	case "postgres", "memory":
	default:
		return fmt.Errorf("STORE_BACKEND must be postgres or memory, got %q", c.StoreBackend)
	}
	switch c.IdentitySource {
	case "firebase", "postgres", "static":
	default:
		return fmt.Errorf("IDENTITY_SOURCE must be firebase, postgres or static, got %q", c.IdentitySource)
	}
	switch c.PostSource {
	case "mongo", "memory":
	default:
		return fmt.Errorf("POST_SOURCE must be mongo or memory, got %q", c.PostSource)
	}
	if _, err := c.SeedPosts(); err != nil {
		return err
	}
	if c.PageMaxLimit <= 0 || c.PageDefaultLimit <= 0 || c.PageDefaultLimit > c.PageMaxLimit {
		return fmt.Errorf("page limits must satisfy 0 < PAGE_DEFAULT_LIMIT <= PAGE_MAX_LIMIT")
	}
	if c.CommentMaxLength <= 0 {
		return fmt.Errorf("COMMENT_MAX_LENGTH must be positive")
	}
	return nil
}

// SeedPost is one STATIC_POSTS entry for the memory post source.
type SeedPost struct {
	ID       string
	AuthorID string
}

// SeedPosts parses StaticPosts, each entry written as "post_id:author_id".
func (c *Config) SeedPosts() ([]SeedPost, error) {
	out := make([]SeedPost, 0, len(c.StaticPosts))
	for _, entry := range c.StaticPosts {
		id, author, ok := strings.Cut(entry, ":")
		id, author = strings.TrimSpace(id), strings.TrimSpace(author)
		if !ok || id == "" || author == "" {
			return nil, fmt.Errorf("STATIC_POSTS entry %q must be post_id:author_id", entry)
		}
		out = append(out, SeedPost{ID: id, AuthorID: author})
	}
	return out, nil
}

// NeedsPostgres reports whether any component is backed by PostgreSQL.
func (c *Config) NeedsPostgres() bool {
	return c.StoreBackend == "postgres" || c.IdentitySource == "postgres"
}

// NeedsMongo reports whether posts are read from MongoDB.
func (c *Config) NeedsMongo() bool {
	return c.PostSource == "mongo"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
