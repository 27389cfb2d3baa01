package app

import (
	"os"
	"strconv"
	"time"

	"github.com/quollhq/authedge/pkg/cryptox"
	"github.com/quollhq/authedge/pkg/jwtx"
)

type Config struct {
	Issuer   string // Required: issuer claim for tokens
	Audience string // Optional: audience claim for tokens

	JWTPrivateKeyPath string        // Path to the ES256 private key (PEM)
	JWTPublicKeyPath  string        // Path to the matching public key (PEM)
	AccessTTL         time.Duration // Access token lifetime (default: 1m)
	RefreshTTL        time.Duration // Refresh token lifetime (default: 12h)

	CipherAlgorithm string // aes-256-gcm or aes-256-cbc (default: aes-256-gcm)
	CipherKeyHex    string // Required: 32-byte key, hex encoded
	CipherIVLength  int    // IV length in bytes (default: 12 for GCM)
	CipherDelimiter string // Envelope segment delimiter (default: ":")
	PasswordScheme  string // envelope (default) or argon2id

	CsrfSigningKeyPath string // Path to the ECDSA P-256 CSRF signing key (PEM)

	BasicUser string // Basic-auth username gating every endpoint
	BasicPass string // Basic-auth password

	UUIDNamespace string // Namespace for deterministic user id derivation

	DatabaseFile string // Path to SQLite database file (default: ./authedge.db)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	CookieSecure        bool          // Secure attribute on session/csrf cookies (default: false)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		Issuer:   getEnvOrDefault("AUTH_ISSUER", "authedge"),
		Audience: os.Getenv("AUTH_AUDIENCE"),

		JWTPrivateKeyPath: getEnvOrDefault("AUTH_JWT_PRIVATE_KEY", "keys/jwt_private.pem"),
		JWTPublicKeyPath:  getEnvOrDefault("AUTH_JWT_PUBLIC_KEY", "keys/jwt_public.pem"),
		AccessTTL:         getEnvDurationOrDefault("AUTH_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL:        getEnvDurationOrDefault("AUTH_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),

		CipherAlgorithm: getEnvOrDefault("AUTH_CIPHER_ALGORITHM", cryptox.AlgorithmGCM),
		CipherKeyHex:    os.Getenv("AUTH_CIPHER_KEY"),
		CipherIVLength:  getEnvIntOrDefault("AUTH_CIPHER_IV_LENGTH", 12),
		CipherDelimiter: getEnvOrDefault("AUTH_CIPHER_DELIMITER", ":"),
		PasswordScheme:  getEnvOrDefault("AUTH_PASSWORD_SCHEME", "envelope"),

		CsrfSigningKeyPath: getEnvOrDefault("AUTH_CSRF_SIGNING_KEY", "keys/csrf_signing.pem"),

		BasicUser: getEnvOrDefault("AUTH_BASIC_USER", "authedge"),
		BasicPass: getEnvOrDefault("AUTH_BASIC_PASS", "authedge"),

		UUIDNamespace: getEnvOrDefault("AUTH_UUID_NAMESPACE", "9f2c1f66-0a42-5b84-9d5e-8c1be25d6f10"),

		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "authedge.db"),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		CookieSecure:        getEnvBoolOrDefault("AUTH_COOKIE_SECURE", false),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
