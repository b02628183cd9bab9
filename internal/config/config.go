// Package config loads server settings from KPLAN_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseURL string // KPLAN_DATABASE_URL (required)
	GRPCAddr    string // KPLAN_GRPC_ADDR (default ":9090")
	HTTPAddr    string // KPLAN_HTTP_ADDR (default ":8080")
	NATSURL     string // KPLAN_NATS_URL (optional, empty = no NATS events)
	RedisURL    string // KPLAN_REDIS_URL (optional, empty = no Redis events)
	AuthToken   string // KPLAN_AUTH_TOKEN (optional, empty = auth disabled)

	// Capacity analysis
	CapacityFile          string  // KPLAN_CAPACITY_FILE (optional TOML ceilings)
	DefaultCapacityHours  float64 // KPLAN_DEFAULT_CAPACITY_HOURS (default 40)
	CapacityLookbackWeeks int     // KPLAN_CAPACITY_LOOKBACK_WEEKS (default 1, minimum 1)
	CapacityHorizonWeeks  int     // KPLAN_CAPACITY_HORIZON_WEEKS (default 4)

	// Sync settings
	SyncInterval   time.Duration // KPLAN_SYNC_INTERVAL (default 0 = disabled)
	SyncS3Bucket   string        // KPLAN_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        // KPLAN_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        // KPLAN_SYNC_S3_REGION (default "us-east-1")
	SyncS3Key      string        // KPLAN_SYNC_S3_KEY (default "kplan/export.jsonl")
	SyncGitRepo    string        // KPLAN_SYNC_GIT_REPO (enables git when set; path to clone)
	SyncGitFile    string        // KPLAN_SYNC_GIT_FILE (default "kplan.jsonl")
	SyncGitBranch  string        // KPLAN_SYNC_GIT_BRANCH (default "main")
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:    os.Getenv("KPLAN_DATABASE_URL"),
		GRPCAddr:       envOrDefault("KPLAN_GRPC_ADDR", ":9090"),
		HTTPAddr:       envOrDefault("KPLAN_HTTP_ADDR", ":8080"),
		NATSURL:        os.Getenv("KPLAN_NATS_URL"),
		RedisURL:       os.Getenv("KPLAN_REDIS_URL"),
		AuthToken:      os.Getenv("KPLAN_AUTH_TOKEN"),
		CapacityFile:   os.Getenv("KPLAN_CAPACITY_FILE"),
		SyncS3Bucket:   os.Getenv("KPLAN_SYNC_S3_BUCKET"),
		SyncS3Endpoint: os.Getenv("KPLAN_SYNC_S3_ENDPOINT"),
		SyncS3Region:   envOrDefault("KPLAN_SYNC_S3_REGION", "us-east-1"),
		SyncS3Key:      envOrDefault("KPLAN_SYNC_S3_KEY", "kplan/export.jsonl"),
		SyncGitRepo:    os.Getenv("KPLAN_SYNC_GIT_REPO"),
		SyncGitFile:    envOrDefault("KPLAN_SYNC_GIT_FILE", "kplan.jsonl"),
		SyncGitBranch:  envOrDefault("KPLAN_SYNC_GIT_BRANCH", "main"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("KPLAN_DATABASE_URL is required")
	}

	hours, err := strconv.ParseFloat(envOrDefault("KPLAN_DEFAULT_CAPACITY_HOURS", "40"), 64)
	if err != nil {
		return nil, fmt.Errorf("KPLAN_DEFAULT_CAPACITY_HOURS: %w", err)
	}
	if hours <= 0 {
		return nil, fmt.Errorf("KPLAN_DEFAULT_CAPACITY_HOURS must be positive, got %g", hours)
	}
	c.DefaultCapacityHours = hours

	if c.CapacityLookbackWeeks, err = envInt("KPLAN_CAPACITY_LOOKBACK_WEEKS", 1, 1); err != nil {
		return nil, err
	}
	if c.CapacityHorizonWeeks, err = envInt("KPLAN_CAPACITY_HORIZON_WEEKS", 4, 0); err != nil {
		return nil, err
	}

	if intervalStr := os.Getenv("KPLAN_SYNC_INTERVAL"); intervalStr != "" {
		d, err := time.ParseDuration(intervalStr)
		if err != nil {
			return nil, fmt.Errorf("KPLAN_SYNC_INTERVAL: %w", err)
		}
		c.SyncInterval = d
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback, minimum int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n < minimum {
		return 0, fmt.Errorf("%s must be at least %d, got %d", key, minimum, n)
	}
	return n, nil
}
