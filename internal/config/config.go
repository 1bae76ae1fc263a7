package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// DevSessionSecret is only acceptable outside production.
	DevSessionSecret = "change-me-in-production-32bytes!"

	managerPasswordPrefix = "REWARDS_MANAGER_PASSWORD_"
)

var (
	ErrDefaultSecret = errors.New("session secret must be overridden in production")
	ErrShortSecret   = errors.New("session secret must be at least 32 bytes")
)

type Config struct {
	Env           string
	Port          int
	DataDir       string
	SessionSecret string
	SessionMaxAge int
	SecureCookie  bool
	RosterFile    string
	LogLevel      string
	LogFormat     string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first if present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Env:           strings.ToLower(getEnvString("REWARDS_ENV", EnvDevelopment)),
		Port:          getEnvInt("REWARDS_PORT", 5000),
		DataDir:       getEnvString("REWARDS_DATA_DIR", "./data"),
		SessionSecret: getEnvString("REWARDS_SESSION_SECRET", DevSessionSecret),
		SessionMaxAge: getEnvInt("REWARDS_SESSION_MAX_AGE", 86400), // 24 hours
		SecureCookie:  getEnvBool("REWARDS_SECURE_COOKIE", false),
		RosterFile:    getEnvString("REWARDS_ROSTER_FILE", ""),
		LogLevel:      getEnvString("REWARDS_LOG_LEVEL", "info"),
		LogFormat:     getEnvString("REWARDS_LOG_FORMAT", "text"),
	}

	os.MkdirAll(cfg.DataDir, 0755)

	return cfg
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Validate refuses insecure defaults when running in production.
func (c *Config) Validate() error {
	if !c.IsProduction() {
		return nil
	}
	if c.SessionSecret == DevSessionSecret {
		return ErrDefaultSecret
	}
	if len(c.SessionSecret) < 32 {
		return ErrShortSecret
	}
	return nil
}

// ManagerPassword returns the configured password for a manager username,
// read from REWARDS_MANAGER_PASSWORD_<USERNAME>.
func ManagerPassword(username string) (string, bool) {
	val := os.Getenv(ManagerPasswordKey(username))
	return val, val != ""
}

func ManagerPasswordKey(username string) string {
	key := strings.ToUpper(username)
	key = strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, key)
	return managerPasswordPrefix + key
}

func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
