// Package config provides configuration management for the shorts web frontend.
// It loads configuration from environment variables with sensible defaults and
// validates it so the process refuses to start with an unsafe setup.
//
// Environment Variables:
//
// Application Settings:
//   - PORT: Server port (default: 8080)
//   - LOG_LEVEL: Logging level (default: info)
//   - LOG_FILE: Log file path; stdout when empty
//   - TLS_CERT_FILE, TLS_KEY_FILE: Serve HTTPS when both are set
//
// Backend API:
//   - API_URL: Base address of the backend REST API (default: http://localhost:8080)
//   - API_TIMEOUT: Timeout for backend calls (default: 30s)
//   - OBJECT_STORAGE_HOSTS: Comma separated host suffixes that never receive the
//     backend credential (default: s3.amazonaws.com, which also matches regional
//     S3 endpoints). API_URL must not match any of them.
//
// OAuth Provider:
//   - OAUTH_PROVIDER: Provider name used in callback routes (default: kakao)
//   - OAUTH_CLIENT_ID: Client identifier registered with the provider (required)
//   - OAUTH_REDIRECT_URI: Redirect-back address (required)
//   - OAUTH_AUTH_URL: Provider authorization endpoint (default: Kakao)
//   - OAUTH_SCOPE: Comma separated requested scopes (default: profile_nickname,profile_image)
//
// Session:
//   - TOKEN_STORE: "cookie", "redis" or "memory" (default: cookie)
//   - SESSION_SECRET: Secret used to seal credential cookies (required for cookie, minimum 32 characters)
//   - COOKIE_CDN_SUFFIX: CDN host suffix that triggers domain-scoped secure cookies (default: cloudfront.net)
//   - COOKIE_TTL: Credential lifetime (default: 168h)
//   - GUARD_MODE: "strict" or "presence" (default: strict)
//
// Redis Configuration:
//   - REDIS_ADDRESS: Redis server address (default: localhost:6379)
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number 0-15 (default: 0)
//   - REDIS_POOL_SIZE: Redis connection pool size (default: 10)
//
// Uploads:
//   - DRAFT_STORE: "memory" or "redis" (default: memory)
//   - DRAFT_TTL: How long recorded drafts are kept (default: 1h)
//   - S3_COMPENSATION_ENABLED: Delete orphaned objects when confirmation fails (default: false)
//   - AWS_REGION: Region of the upload bucket (default: ap-northeast-2)
//   - S3_BUCKET: Bucket receiving pre-signed uploads
//   - AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, AWS_SESSION_TOKEN: Static
//     credentials for the bucket; the default AWS chain is used when unset
//
// Example usage:
//
//	cfg := config.Load()
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("Invalid configuration: %v", err)
//	}
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"shorts-web/internal/apiclient"
)

// Token store strategies.
const (
	TokenStoreCookie = "cookie"
	TokenStoreRedis  = "redis"
	TokenStoreMemory = "memory"
)

// Draft store backends.
const (
	DraftStoreMemory = "memory"
	DraftStoreRedis  = "redis"
)

// Guard modes.
const (
	GuardModeStrict   = "strict"
	GuardModePresence = "presence"
)

// DefaultKakaoAuthURL is Kakao's OAuth authorization endpoint.
const DefaultKakaoAuthURL = "https://kauth.kakao.com/oauth/authorize"

// Config holds all configuration values for the web frontend.
// The configuration is loaded using Load() and should be validated using
// Validate() before use.
type Config struct {
	// Application settings
	Port     string // Server port number
	LogLevel string // Logging level (debug, info, warn, error)
	LogFile  string // Optional log file path
	TLSCert  string // Certificate file; plain HTTP when empty
	TLSKey   string // Private key file matching TLSCert

	// Backend API
	APIURL             string        // Backend base address
	APITimeout         time.Duration // Timeout for backend calls
	ObjectStorageHosts []string      // Hosts that must not receive the backend credential

	// OAuth provider
	OAuthProvider    string   // Provider name, e.g. kakao
	OAuthClientID    string   // Client identifier
	OAuthRedirectURI string   // Redirect-back address
	OAuthAuthURL     string   // Authorization endpoint
	OAuthScopes      []string // Requested permission scope

	// Session
	TokenStore      string        // cookie, redis or memory
	SessionSecret   string        // Cookie sealing secret
	CookieCDNSuffix string        // Host suffix that triggers domain scoped cookies
	CookieTTL       time.Duration // Credential lifetime
	GuardMode       string        // strict or presence

	// Redis configuration
	RedisAddress  string // Redis server address (host:port)
	RedisPassword string // Redis authentication password
	RedisDB       string // Redis database number (0-15)
	RedisPoolSize string // Redis connection pool size

	// Uploads
	DraftStore            string        // memory or redis
	DraftTTL              time.Duration // Lifetime of recorded drafts
	S3CompensationEnabled bool          // Delete orphaned uploads on confirmation failure
	AWSRegion             string        // Region of the upload bucket
	S3Bucket              string        // Upload bucket
	AWSAccessKeyID        string        // Optional static credentials
	AWSSecretAccessKey    string
	AWSSessionToken       string
}

// Load creates a new Config instance with values loaded from environment variables.
// If an environment variable is not set, the corresponding default value is used.
//
// This function does not validate the configuration - call Validate() on the
// returned Config.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),
		TLSCert:  getEnv("TLS_CERT_FILE", ""),
		TLSKey:   getEnv("TLS_KEY_FILE", ""),

		APIURL:             strings.TrimRight(getEnv("API_URL", "http://localhost:8080"), "/"),
		APITimeout:         getDurationEnv("API_TIMEOUT", 30*time.Second),
		ObjectStorageHosts: getListEnv("OBJECT_STORAGE_HOSTS", []string{apiclient.S3Host}),

		OAuthProvider:    getEnv("OAUTH_PROVIDER", "kakao"),
		OAuthClientID:    getEnv("OAUTH_CLIENT_ID", ""),
		OAuthRedirectURI: getEnv("OAUTH_REDIRECT_URI", ""),
		OAuthAuthURL:     getEnv("OAUTH_AUTH_URL", DefaultKakaoAuthURL),
		OAuthScopes:      getListEnv("OAUTH_SCOPE", []string{"profile_nickname", "profile_image"}),

		TokenStore:      strings.ToLower(getEnv("TOKEN_STORE", TokenStoreCookie)),
		SessionSecret:   getEnv("SESSION_SECRET", ""),
		CookieCDNSuffix: getEnv("COOKIE_CDN_SUFFIX", "cloudfront.net"),
		CookieTTL:       getDurationEnv("COOKIE_TTL", 7*24*time.Hour),
		GuardMode:       strings.ToLower(getEnv("GUARD_MODE", GuardModeStrict)),

		RedisAddress:  getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnv("REDIS_DB", "0"),
		RedisPoolSize: getEnv("REDIS_POOL_SIZE", "10"),

		DraftStore:            strings.ToLower(getEnv("DRAFT_STORE", DraftStoreMemory)),
		DraftTTL:              getDurationEnv("DRAFT_TTL", time.Hour),
		S3CompensationEnabled: getBoolEnv("S3_COMPENSATION_ENABLED", false),
		AWSRegion:             getEnv("AWS_REGION", "ap-northeast-2"),
		S3Bucket:              getEnv("S3_BUCKET", ""),
		AWSAccessKeyID:        getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:    getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSSessionToken:       getEnv("AWS_SESSION_TOKEN", ""),
	}
}

// UsesRedis reports whether any component needs a Redis connection.
func (c *Config) UsesRedis() bool {
	return c.TokenStore == TokenStoreRedis || c.DraftStore == DraftStoreRedis
}

// RedisDBNumber returns REDIS_DB as an int. Validate guarantees it parses.
func (c *Config) RedisDBNumber() int {
	db, _ := strconv.Atoi(c.RedisDB)
	return db
}

// RedisPoolSizeNumber returns REDIS_POOL_SIZE as an int. Validate guarantees it parses.
func (c *Config) RedisPoolSizeNumber() int {
	size, _ := strconv.Atoi(c.RedisPoolSize)
	return size
}

// getEnv retrieves an environment variable value or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnv accepts the representations understood by strconv.ParseBool.
// Any other value returns defaultValue.
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getDurationEnv parses a time.ParseDuration value; unparsable values yield zero
// so Validate can reject them.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return parsed
}

// getListEnv splits a comma separated variable, dropping empty items.
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// Validate checks required fields, value formats and cross-field dependencies.
func (c *Config) Validate() error {
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a valid port number between 1 and 65535")
	}

	if (c.TLSCert == "") != (c.TLSKey == "") {
		return fmt.Errorf("TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}

	apiURL, err := url.Parse(c.APIURL)
	if err != nil || apiURL.Scheme == "" || apiURL.Host == "" {
		return fmt.Errorf("API_URL must be an absolute URL")
	}
	if apiclient.IsObjectStorageHost(c.ObjectStorageHosts, apiURL.Hostname()) {
		return fmt.Errorf("API_URL host %q matches OBJECT_STORAGE_HOSTS; backend calls would never carry the session credential", apiURL.Hostname())
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("API_TIMEOUT must be a positive duration (e.g., '30s')")
	}

	if c.OAuthClientID == "" {
		return fmt.Errorf("OAUTH_CLIENT_ID environment variable is required")
	}
	if c.OAuthRedirectURI == "" {
		return fmt.Errorf("OAUTH_REDIRECT_URI environment variable is required")
	}
	if _, err := url.Parse(c.OAuthAuthURL); err != nil || c.OAuthAuthURL == "" {
		return fmt.Errorf("OAUTH_AUTH_URL must be a valid URL")
	}

	switch c.TokenStore {
	case TokenStoreCookie:
		if len(c.SessionSecret) < 32 {
			return fmt.Errorf("SESSION_SECRET must be at least 32 characters long when TOKEN_STORE=cookie")
		}
	case TokenStoreRedis, TokenStoreMemory:
	default:
		return fmt.Errorf("TOKEN_STORE must be 'cookie', 'redis' or 'memory'")
	}

	if c.CookieTTL <= 0 {
		return fmt.Errorf("COOKIE_TTL must be a positive duration (e.g., '168h')")
	}

	switch c.GuardMode {
	case GuardModeStrict, GuardModePresence:
	default:
		return fmt.Errorf("GUARD_MODE must be 'strict' or 'presence'")
	}

	if c.UsesRedis() {
		if c.RedisAddress == "" {
			return fmt.Errorf("REDIS_ADDRESS is required when a Redis store is selected")
		}
		if db, err := strconv.Atoi(c.RedisDB); err != nil || db < 0 || db > 15 {
			return fmt.Errorf("REDIS_DB must be a number between 0 and 15")
		}
		if poolSize, err := strconv.Atoi(c.RedisPoolSize); err != nil || poolSize < 1 {
			return fmt.Errorf("REDIS_POOL_SIZE must be a positive number")
		}
	}

	switch c.DraftStore {
	case DraftStoreMemory, DraftStoreRedis:
	default:
		return fmt.Errorf("DRAFT_STORE must be 'memory' or 'redis'")
	}

	if c.DraftTTL <= 0 {
		return fmt.Errorf("DRAFT_TTL must be a positive duration (e.g., '1h')")
	}

	if c.S3CompensationEnabled {
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when S3_COMPENSATION_ENABLED=true")
		}
		if c.AWSRegion == "" {
			return fmt.Errorf("AWS_REGION is required when S3_COMPENSATION_ENABLED=true")
		}
	}

	return nil
}
