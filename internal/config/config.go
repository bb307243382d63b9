package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	BaseURL     string

	LogLevel  string
	LogFormat string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	// DuesAnnualAmount is the full yearly membership fee for normal
	// members, before quarter proration.
	DuesAnnualAmount string

	// ArchiveRoot is the directory invoice PDFs are copied into. The
	// directory is created on first use.
	ArchiveRoot string

	Email EmailConfig
}

// EmailConfig configures the outbound mail provider. Mode "console"
// prints messages instead of sending them.
type EmailConfig struct {
	Mode     string
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

const (
	EmailModeSMTP    = "smtp"
	EmailModeConsole = "console"
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "memberadmin"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: environment,
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		BaseURL:     strings.TrimRight(getenv("BASE_URL", "http://localhost:8080"), "/"),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "json"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "memberadmin"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),

		DuesAnnualAmount: getenv("DUES_ANNUAL_AMOUNT", "50"),
		ArchiveRoot:      getenv("INVOICE_ARCHIVE_ROOT", "var/invoice-archive"),

		Email: EmailConfig{
			Mode:     normalizeEmailMode(getenv("EMAIL_MODE", EmailModeConsole)),
			Host:     getenv("EMAIL_HOST", "localhost"),
			Port:     getenvInt("EMAIL_PORT", 587),
			Username: getenv("EMAIL_USERNAME", ""),
			Password: getenv("EMAIL_PASSWORD", ""),
			From:     getenv("EMAIL_FROM", "office@example.coop"),
		},
	}

	return cfg
}

func (c Config) Debug() bool {
	return c.Environment != "production"
}

func normalizeEmailMode(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case EmailModeSMTP:
		return EmailModeSMTP
	default:
		return EmailModeConsole
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
