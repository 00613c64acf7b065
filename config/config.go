// Package config loads service settings from the environment (and .env).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	LogLevel string
	Port     string

	DatabaseURL    string
	AllowedOrigins string
	ServiceToken   string
	AdminEmails    []string

	FirebaseServiceAccount string
	AuthServiceURL         string
	AuthServiceToken       string

	Ledger LedgerConfig

	LeaderboardRefresh time.Duration

	R2 R2Config
}

// LedgerConfig holds the point values paid out by the referral paths.
type LedgerConfig struct {
	SignupReferralBonus   int64
	RedemptionBonus       int64
	RedeemOncePerVisitor  bool
	DefaultLeaderboardTop int
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	CDNBaseURL      string
}

// VerifiesTokens reports whether user identity comes from a token check
// (Firebase or the auth service) rather than gateway headers.
func (c *Config) VerifiesTokens() bool {
	return c.FirebaseServiceAccount != "" || c.AuthServiceURL != ""
}

// CheckIdentity rejects a setup where X-User-* headers would be trusted from
// any client: header identity is only accepted behind the service token.
func (c *Config) CheckIdentity() error {
	if !c.VerifiesTokens() && c.ServiceToken == "" {
		return errors.New("SERVICE_TOKEN is required when neither FIREBASE_SERVICE_ACCOUNT nor AUTH_SERVICE_URL is set")
	}
	return nil
}

// Enabled reports whether enough settings are present to talk to R2.
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.AccessKeySecret != "" && c.Bucket != ""
}

// DefaultLedger pays 10 points per referral on both paths.
var DefaultLedger = LedgerConfig{
	SignupReferralBonus:   10,
	RedemptionBonus:       10,
	RedeemOncePerVisitor:  false,
	DefaultLeaderboardTop: 50,
}

// Load reads .env if present, then the process environment.
// It returns whether a .env file was found so the caller can log it.
func Load() (*Config, bool, error) {
	dotenv := godotenv.Load() == nil

	cfg := &Config{
		Env:                    getEnv("APP_ENV", "production"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		Port:                   getEnv("PORT", "5200"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		AllowedOrigins:         normalizeList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		ServiceToken:           os.Getenv("SERVICE_TOKEN"),
		AdminEmails:            splitList(os.Getenv("ADMIN_EMAILS")),
		FirebaseServiceAccount: os.Getenv("FIREBASE_SERVICE_ACCOUNT"),
		AuthServiceURL:         os.Getenv("AUTH_SERVICE_URL"),
		AuthServiceToken:       os.Getenv("AUTH_SERVICE_TOKEN"),
		Ledger:                 DefaultLedger,
		LeaderboardRefresh:     5 * time.Minute,
		R2: R2Config{
			AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			AccessKeySecret: os.Getenv("R2_ACCESS_KEY_SECRET"),
			Bucket:          os.Getenv("R2_BUCKET_NAME"),
			CDNBaseURL:      os.Getenv("CDN_BASE_URL"),
		},
	}

	var err error
	if cfg.Ledger.SignupReferralBonus, err = getInt("SIGNUP_REFERRAL_BONUS", cfg.Ledger.SignupReferralBonus); err != nil {
		return nil, dotenv, err
	}
	if cfg.Ledger.RedemptionBonus, err = getInt("REDEMPTION_BONUS", cfg.Ledger.RedemptionBonus); err != nil {
		return nil, dotenv, err
	}
	if v := os.Getenv("REFERRAL_REDEEM_ONCE_PER_VISITOR"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, dotenv, fmt.Errorf("REFERRAL_REDEEM_ONCE_PER_VISITOR: %w", err)
		}
		cfg.Ledger.RedeemOncePerVisitor = b
	}
	if v := os.Getenv("LEADERBOARD_REFRESH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, dotenv, fmt.Errorf("LEADERBOARD_REFRESH_INTERVAL: %w", err)
		}
		if d <= 0 {
			return nil, dotenv, fmt.Errorf("LEADERBOARD_REFRESH_INTERVAL must be positive, got %s", d)
		}
		cfg.LeaderboardRefresh = d
	}

	return cfg, dotenv, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int64) (int64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// normalizeList trims every entry of a comma-separated list, as Fiber's CORS
// config expects.
func normalizeList(s string) string {
	return strings.Join(splitList(s), ",")
}
