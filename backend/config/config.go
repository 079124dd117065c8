package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AdminPolicy decides who may register with the admin role.
type AdminPolicy string

const (
	AdminPolicyOpen       AdminPolicy = "open"
	AdminPolicyFirstOnly  AdminPolicy = "first-only"
	AdminPolicyInviteOnly AdminPolicy = "invite-only"
)

type Config struct {
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	JWTSecret string
	JWTTTL    time.Duration

	ServerPort  string
	LogMode     string
	CORSOrigins string

	AdminRegistrationPolicy AdminPolicy
	AdminInviteCode         string

	AnalyticsRefreshInterval time.Duration
	CourseUpdateRetries      int
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	policy, err := ParseAdminPolicy(v.GetString("ADMIN_REGISTRATION_POLICY"))
	if err != nil {
		return nil, err
	}

	driver := strings.ToLower(v.GetString("DB_DRIVER"))
	if driver != "postgres" && driver != "sqlite" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	retries := v.GetInt("COURSE_UPDATE_RETRIES")
	if retries < 1 {
		retries = 1
	}

	return &Config{
		DBDriver:                 driver,
		DBHost:                   v.GetString("DB_HOST"),
		DBPort:                   v.GetString("DB_PORT"),
		DBUser:                   v.GetString("DB_USER"),
		DBPassword:               v.GetString("DB_PASSWORD"),
		DBName:                   v.GetString("DB_NAME"),
		DBSSLMode:                v.GetString("DB_SSLMODE"),
		SQLitePath:               v.GetString("SQLITE_PATH"),
		JWTSecret:                v.GetString("JWT_SECRET"),
		JWTTTL:                   v.GetDuration("JWT_TTL"),
		ServerPort:               v.GetString("SERVER_PORT"),
		LogMode:                  v.GetString("LOG_MODE"),
		CORSOrigins:              v.GetString("CORS_ORIGINS"),
		AdminRegistrationPolicy:  policy,
		AdminInviteCode:          v.GetString("ADMIN_INVITE_CODE"),
		AnalyticsRefreshInterval: v.GetDuration("ANALYTICS_REFRESH_INTERVAL"),
		CourseUpdateRetries:      retries,
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "learning_platform")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("SQLITE_PATH", "lms.db")
	v.SetDefault("JWT_SECRET", "secret")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_MODE", "development")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("ADMIN_REGISTRATION_POLICY", string(AdminPolicyFirstOnly))
	v.SetDefault("ADMIN_INVITE_CODE", "")
	v.SetDefault("ANALYTICS_REFRESH_INTERVAL", "1h")
	v.SetDefault("COURSE_UPDATE_RETRIES", 3)
}

// ParseAdminPolicy accepts the policy names case-insensitively. Empty means first-only.
func ParseAdminPolicy(raw string) (AdminPolicy, error) {
	switch p := AdminPolicy(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return AdminPolicyFirstOnly, nil
	case AdminPolicyOpen, AdminPolicyFirstOnly, AdminPolicyInviteOnly:
		return p, nil
	default:
		return "", fmt.Errorf("unknown ADMIN_REGISTRATION_POLICY %q", raw)
	}
}
