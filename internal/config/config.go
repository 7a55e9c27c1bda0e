package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	DatabaseURL      string
	AllowOrigins     []string
	LogstashTCPAddr  string
	JWTAccessSecret  string
	JWTRefreshSecret string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	GoogleAudience   string
	SMTPHost         string
	SMTPPort         string
	SMTPUsername     string
	SMTPPassword     string
	SMTPFrom         string
	OTPTTL           time.Duration
	OTPLength        int
	MinIOEndpoint    string
	MinIOAccessKey   string
	MinIOSecretKey   string
	MinIOUseSSL      bool
	MinIOBucket      string
	PresignTTL       time.Duration
	FFMPEGPath       string
	ProfilePicMaxDim int
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	otpLen := 6
	if v, err := strconv.Atoi(getenv("OTP_LENGTH", "6")); err == nil && v > 0 {
		otpLen = v
	}

	maxDim := 1024
	if v, err := strconv.Atoi(getenv("PROFILE_PIC_MAX_DIMENSION", "1024")); err == nil && v > 0 {
		maxDim = v
	}

	return Config{
		Port:             getenv("PORT", "8080"),
		DatabaseURL:      must("DATABASE_URL"),
		AllowOrigins:     splitAndTrim(getenv("ALLOW_ORIGINS", "*")),
		LogstashTCPAddr:  getenv("LOGSTASH_TCP_ADDR", ""),
		JWTAccessSecret:  must("JWT_SECRET_KEY"),
		JWTRefreshSecret: must("JWT_REFRESH_SECRET_KEY"),
		AccessTokenTTL:   duration("ACCESS_TOKEN_TTL", 24*time.Hour),
		RefreshTokenTTL:  duration("REFRESH_TOKEN_TTL", 240*time.Hour),
		GoogleAudience:   getenv("GOOGLE_AUDIENCE", ""),
		SMTPHost:         getenv("SMTP_HOST", ""),
		SMTPPort:         getenv("SMTP_PORT", ""),
		SMTPUsername:     getenv("SMTP_USERNAME", ""),
		SMTPPassword:     getenv("SMTP_PASSWORD", ""),
		SMTPFrom:         getenv("SMTP_FROM", ""),
		OTPTTL:           duration("OTP_TTL", 10*time.Minute),
		OTPLength:        otpLen,
		MinIOEndpoint:    must("MINIO_ENDPOINT"),
		MinIOAccessKey:   must("MINIO_ACCESS_KEY"),
		MinIOSecretKey:   must("MINIO_SECRET_KEY"),
		MinIOUseSSL:      getenv("MINIO_USE_SSL", "false") == "true",
		MinIOBucket:      getenv("MINIO_BUCKET_PROFILE", "bitshare-profile"),
		PresignTTL:       duration("PRESIGN_TTL", 15*time.Minute),
		FFMPEGPath:       getenv("FFMPEG_PATH", "ffmpeg"),
		ProfilePicMaxDim: maxDim,
	}
}

func duration(k string, d time.Duration) time.Duration {
	raw := getenv(k, "")
	if raw == "" {
		return d
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		log.Printf("Warning: invalid %s %q, using %s", k, raw, d)
		return d
	}
	return v
}

func splitAndTrim(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
