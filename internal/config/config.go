package config

import (
	"errors"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env         string
	Port        string
	MongoURI    string
	MongoDB     string
	CORSOrigins []string
	// TrustedProxies lists the IPs or CIDRs whose X-Forwarded-For header
	// is honoured. Empty means the socket peer is the client.
	TrustedProxies []string

	JWTSecret       string
	RefreshSecret   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	ResetTokenTTL   time.Duration
	BcryptCost      int

	// StrictRoleGates makes the station-admin, police and system-admin gates
	// reject callers without the role instead of passing them through.
	StrictRoleGates bool

	StorageDriver string // "local" or "s3"
	UploadDir     string
	PublicBaseURL string
	S3Bucket      string
	S3Region      string
	S3Endpoint    string
	S3PublicURL   string
	MaxUploadMB   int

	AMQPURL         string
	RedisURL        string
	RateLimit       int
	RateWindow      time.Duration
	ExpoPushURL     string
	ExpoAccessToken string
}

func Load() Config {
	return Config{
		Env:         getenv("ENV", "production"),
		Port:        getenv("API_PORT", "8080"),
		MongoURI:    getenv("MONGO_URI", ""),
		MongoDB:     getenv("MONGO_DATABASE", "complaints"),
		CORSOrigins: getenvList("CORS_ORIGINS", []string{"*"}),

		TrustedProxies: getenvList("TRUSTED_PROXIES", nil),

		JWTSecret:       getenv("JWT_SECRET", ""),
		RefreshSecret:   getenv("REFRESH_SECRET", ""),
		AccessTokenTTL:  getenvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: getenvDuration("REFRESH_TOKEN_TTL", 365*24*time.Hour),
		ResetTokenTTL:   getenvDuration("RESET_TOKEN_TTL", 15*time.Minute),
		BcryptCost:      getenvInt("BCRYPT_COST", 10),

		StrictRoleGates: getenvBool("STRICT_ROLE_GATES", false),

		StorageDriver: getenv("STORAGE_DRIVER", "local"),
		UploadDir:     getenv("UPLOAD_DIR", "./uploads"),
		PublicBaseURL: strings.TrimRight(getenv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		S3Bucket:      getenv("S3_BUCKET", ""),
		S3Region:      getenv("S3_REGION", "us-east-1"),
		S3Endpoint:    getenv("S3_ENDPOINT", ""),
		S3PublicURL:   strings.TrimRight(getenv("S3_PUBLIC_URL", ""), "/"),
		MaxUploadMB:   getenvInt("MAX_UPLOAD_MB", 10),

		AMQPURL:         getenv("AMQP_URL", ""),
		RedisURL:        getenv("REDIS_URL", ""),
		RateLimit:       getenvInt("RATE_LIMIT", 20),
		RateWindow:      getenvDuration("RATE_WINDOW", time.Minute),
		ExpoPushURL:     getenv("EXPO_PUSH_URL", "https://exp.host/--/api/v2/push/send"),
		ExpoAccessToken: getenv("EXPO_ACCESS_TOKEN", ""),
	}
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	var problems []string
	if c.MongoURI == "" {
		problems = append(problems, "MONGO_URI is not set")
	}
	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is not set")
	}
	if c.RefreshSecret == "" {
		problems = append(problems, "REFRESH_SECRET is not set")
	}
	if c.StorageDriver == "s3" && c.S3Bucket == "" {
		problems = append(problems, "S3_BUCKET is required when STORAGE_DRIVER=s3")
	}
	if c.StorageDriver != "s3" && c.StorageDriver != "local" {
		problems = append(problems, "STORAGE_DRIVER must be local or s3")
	}
	for _, p := range c.TrustedProxies {
		if net.ParseIP(p) == nil {
			if _, _, err := net.ParseCIDR(p); err != nil {
				problems = append(problems, "TRUSTED_PROXIES entry "+strconv.Quote(p)+" is not an IP or CIDR")
			}
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
