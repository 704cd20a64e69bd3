// shared/config/config.go
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// ServiceConfig holds all configuration for the registration service,
// loaded from environment variables with sensible defaults.
type ServiceConfig struct {
	ListenAddr string

	MongoDBConnStr            string
	MongoDBDatabase           string
	MongoDBTeamsCollection    string
	MongoDBAdminsCollection   string
	MongoDBCountersCollection string

	RedisAddrs    []string
	RedisPassword string

	// Instance registry heartbeating.
	HeartbeatInterval       time.Duration
	HeartbeatTTL            time.Duration
	RegistryCleanupInterval time.Duration
	ServiceIP               string
	ServicePort             int

	// Admin sessions.
	JWTSecret string
	TokenTTL  time.Duration

	// Payment gateway (Razorpay-compatible).
	GatewayKeyID     string
	GatewayKeySecret string
	GatewayBaseURL   string
	GatewayTimeout   time.Duration

	// Blob storage for proof artifacts.
	StorageUploadURL    string
	StorageUploadPreset string
	StorageTimeout      time.Duration

	// Outbound mail.
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
	FrontendURL  string
	SupportEmail string

	// Event details rendered onto tickets and emails.
	EventName     string
	EventDate     string
	EventTime     string
	EventVenue    string
	ReportingTime string
}

// Load reads the full service configuration from the environment.
func Load() (*ServiceConfig, error) {
	cfg := &ServiceConfig{
		ListenAddr:                getString("LISTEN_ADDR", ":8080"),
		MongoDBConnStr:            getString("MONGODB_CONN_STR", "mongodb://localhost:27017"),
		MongoDBDatabase:           getString("MONGODB_DATABASE", "hackathon"),
		MongoDBTeamsCollection:    getString("MONGODB_TEAMS_COLLECTION", "teams"),
		MongoDBAdminsCollection:   getString("MONGODB_ADMINS_COLLECTION", "admins"),
		MongoDBCountersCollection: getString("MONGODB_COUNTERS_COLLECTION", "counters"),
		RedisPassword:             os.Getenv("REDIS_PASSWORD"),
		JWTSecret:                 getString("JWT_SECRET", "dev-secret-change-me"),
		GatewayKeyID:              os.Getenv("RAZORPAY_KEY_ID"),
		GatewayKeySecret:          os.Getenv("RAZORPAY_KEY_SECRET"),
		GatewayBaseURL:            getString("RAZORPAY_BASE_URL", "https://api.razorpay.com/v1"),
		StorageUploadURL:          os.Getenv("STORAGE_UPLOAD_URL"),
		StorageUploadPreset:       os.Getenv("STORAGE_UPLOAD_PRESET"),
		SMTPHost:                  getString("SMTP_HOST", "smtp.gmail.com"),
		SMTPUsername:              os.Getenv("EMAIL_USER"),
		SMTPPassword:              os.Getenv("EMAIL_PASSWORD"),
		FrontendURL:               getString("FRONTEND_URL", "http://localhost:3000"),
		SupportEmail:              getString("SUPPORT_EMAIL", "support@hackathon.com"),
		EventName:                 getString("EVENT_NAME", "HACKATHON 2025"),
		EventDate:                 getString("EVENT_DATE", "January 15-16, 2025"),
		EventTime:                 getString("EVENT_TIME", "9:00 AM - 6:00 PM"),
		EventVenue:                getString("EVENT_VENUE", "College Auditorium"),
		ReportingTime:             getString("REPORTING_TIME", "8:30 AM"),
	}
	cfg.MailFrom = getString("MAIL_FROM", cfg.SMTPUsername)

	redisAddrsStr := os.Getenv("REDIS_ADDRS")
	if redisAddrsStr == "" {
		cfg.RedisAddrs = []string{"localhost:6379"}
	} else {
		for _, addr := range strings.Split(redisAddrsStr, ",") {
			cfg.RedisAddrs = append(cfg.RedisAddrs, strings.TrimSpace(addr))
		}
	}

	var err error
	if cfg.HeartbeatInterval, err = getDuration("SERVICE_HEARTBEAT_INTERVAL", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.HeartbeatTTL, err = getDuration("SERVICE_HEARTBEAT_TTL", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.RegistryCleanupInterval, err = getDuration("SERVICE_REGISTRY_CLEANUP_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.TokenTTL, err = getDuration("ADMIN_TOKEN_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.GatewayTimeout, err = getDuration("RAZORPAY_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.StorageTimeout, err = getDuration("STORAGE_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.SMTPPort, err = getInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}

	// Service IP advertised to the instance registry (Kubernetes Pod IP).
	cfg.ServiceIP = os.Getenv("POD_IP")
	if cfg.ServiceIP == "" {
		cfg.ServiceIP = "0.0.0.0"
	}
	cfg.ServicePort, err = extractPort(cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to extract port from LISTEN_ADDR %q: %w", cfg.ListenAddr, err)
	}

	return cfg, nil
}

func getString(envKey, defaultVal string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return defaultVal
}

func getDuration(envKey string, defaultVal time.Duration) (time.Duration, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid duration format for %s: %w", envKey, err)
	}
	return d, nil
}

func getInt(envKey string, defaultVal int) (int, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid integer format for %s: %w", envKey, err)
	}
	return i, nil
}

// extractPort extracts the numeric port from a listen address
// (":8080" -> 8080, "0.0.0.0:8080" -> 8080).
func extractPort(listenAddr string) (int, error) {
	_, portStr, err := net.SplitHostPort(listenAddr)
	if err != nil {
		if strings.HasPrefix(listenAddr, ":") {
			portStr = strings.TrimPrefix(listenAddr, ":")
		} else {
			return 0, fmt.Errorf("invalid listen address for port extraction: %w", err)
		}
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("invalid port number %q: %w", portStr, err)
	}
	return port, nil
}
