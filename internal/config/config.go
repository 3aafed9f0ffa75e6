// Package config provides configuration management for the wallet insights engine.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Chains    ChainsConfig
	Cache     CacheConfig
	Catalog   CatalogConfig
	Scoring   ScoringConfig
	Batch     BatchConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Host string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Postgres   PostgresConfig
	ClickHouse ClickHouseConfig
	Redis      RedisConfig
}

// PostgresConfig holds Postgres configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// ClickHouseConfig holds ClickHouse configuration
type ClickHouseConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
	QueryTimeout   time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// ChainsConfig lists the chain ids read from the activity store
type ChainsConfig struct {
	Enabled []int
}

// CacheConfig holds cache configuration
type CacheConfig struct {
	TTL time.Duration
}

// Catalog sources
const (
	CatalogSourceEmbedded = "embedded"
	CatalogSourcePostgres = "postgres"
)

// CatalogConfig selects where the protocol catalog is loaded from
type CatalogConfig struct {
	Source string
}

// ScoringConfig holds the weights and thresholds of the behavioral scores.
// Zero values are never produced by LoadConfig; every field has a default.
type ScoringConfig struct {
	// Activity aggregation
	StrongFocusThreshold int
	TimelineLimit        int
	MonthlyLimit         int
	NewProtocolWindow    time.Duration

	// Profitability
	ProfitabilityWinRateWeight         float64
	ProfitabilityROIWeight             float64
	ProfitabilityDiversificationWeight float64
	ROINormalizer                      float64

	// Risk
	RiskConcentrationWeight float64
	RiskLeverageWeight      float64
	RiskVolatilityWeight    float64
	VolatilePnLPercent      float64

	// Trading style
	AggressiveMaxHoldDays   float64
	AggressiveMinRisk       float64
	ConservativeMinHoldDays float64
	ConservativeMaxRisk     float64
	ConservativeMinWinRate  float64

	// Smart money
	SignalMinBuyerPercent      float64
	SignalMinVolume            float64
	SignalConfidenceMultiplier float64
	TopPerformerProfitability  float64
	TopPerformerWinRate        float64
	TopPerformerROI            float64
	TopPerformerLimit          int
	AirdropMinAdoption         float64
	AirdropLimit               int
	AirdropUsedProbability     int
	AirdropUnusedProbability   int

	// Correlation
	CorrelationWindow time.Duration
}

// BatchConfig holds cohort profiling configuration
type BatchConfig struct {
	Workers       int
	MaxCohortSize int // Upper bound on wallets per cohort request
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	FreeTier    int
	BasicTier   int
	PremiumTier int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// Load .env file (optional in production)
	if err := godotenv.Load(); err != nil {
		// .env file is optional - environment variables can be set directly
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "wallet_insights"),
				User:           getEnv("POSTGRES_USER", "insights"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 20),
			},
			ClickHouse: ClickHouseConfig{
				Host:           getEnv("CLICKHOUSE_HOST", "localhost"),
				Port:           getEnv("CLICKHOUSE_PORT", "9000"),
				Database:       getEnv("CLICKHOUSE_DB", "wallet_insights"),
				User:           getEnv("CLICKHOUSE_USER", "default"),
				Password:       getEnv("CLICKHOUSE_PASSWORD", ""),
				MaxConnections: getEnvAsInt("CLICKHOUSE_MAX_CONNECTIONS", 16),
				QueryTimeout:   getEnvAsDuration("CLICKHOUSE_QUERY_TIMEOUT", 10*time.Second),
			},
			Redis: RedisConfig{
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 50),
			},
		},
		Cache: CacheConfig{
			TTL: getEnvAsDuration("CACHE_TTL", 5*time.Minute),
		},
		Catalog: CatalogConfig{
			Source: strings.ToLower(getEnv("CATALOG_SOURCE", CatalogSourceEmbedded)),
		},
		Scoring: loadScoringConfig(),
		Batch: BatchConfig{
			Workers:       getEnvAsInt("BATCH_WORKERS", 8),
			MaxCohortSize: getEnvAsInt("BATCH_MAX_COHORT_SIZE", 500),
		},
		RateLimit: RateLimitConfig{
			FreeTier:    getEnvAsInt("RATE_LIMIT_FREE_TIER", 1000),
			BasicTier:   getEnvAsInt("RATE_LIMIT_BASIC_TIER", 10000),
			PremiumTier: getEnvAsInt("RATE_LIMIT_PREMIUM_TIER", 100000),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	config.Chains = loadChainConfigs()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks values that cannot be defaulted silently
func (c *Config) Validate() error {
	switch c.Catalog.Source {
	case CatalogSourceEmbedded, CatalogSourcePostgres:
	default:
		return fmt.Errorf("invalid CATALOG_SOURCE %q: expected %q or %q",
			c.Catalog.Source, CatalogSourceEmbedded, CatalogSourcePostgres)
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("invalid BATCH_WORKERS %d: must be positive", c.Batch.Workers)
	}
	if c.Batch.MaxCohortSize <= 0 {
		return fmt.Errorf("invalid BATCH_MAX_COHORT_SIZE %d: must be positive", c.Batch.MaxCohortSize)
	}
	if c.Scoring.TimelineLimit <= 0 || c.Scoring.MonthlyLimit <= 0 {
		return fmt.Errorf("timeline and monthly limits must be positive")
	}
	return nil
}

// DefaultScoringConfig returns the built-in scoring weights and thresholds
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		StrongFocusThreshold: 10,
		TimelineLimit:        50,
		MonthlyLimit:         12,
		NewProtocolWindow:    30 * 24 * time.Hour,

		ProfitabilityWinRateWeight:         0.4,
		ProfitabilityROIWeight:             0.4,
		ProfitabilityDiversificationWeight: 0.2,
		ROINormalizer:                      5,

		RiskConcentrationWeight: 40,
		RiskLeverageWeight:      30,
		RiskVolatilityWeight:    30,
		VolatilePnLPercent:      50,

		AggressiveMaxHoldDays:   7,
		AggressiveMinRisk:       60,
		ConservativeMinHoldDays: 30,
		ConservativeMaxRisk:     40,
		ConservativeMinWinRate:  65,

		SignalMinBuyerPercent:      20,
		SignalMinVolume:            10000,
		SignalConfidenceMultiplier: 1.5,
		TopPerformerProfitability:  70,
		TopPerformerWinRate:        60,
		TopPerformerROI:            100,
		TopPerformerLimit:          10,
		AirdropMinAdoption:         30,
		AirdropLimit:               20,
		AirdropUsedProbability:     75,
		AirdropUnusedProbability:   40,

		CorrelationWindow: 24 * time.Hour,
	}
}

// loadScoringConfig overlays SCORING_* environment variables on the defaults
func loadScoringConfig() ScoringConfig {
	d := DefaultScoringConfig()
	return ScoringConfig{
		StrongFocusThreshold: getEnvAsInt("SCORING_STRONG_FOCUS_THRESHOLD", d.StrongFocusThreshold),
		TimelineLimit:        getEnvAsInt("SCORING_TIMELINE_LIMIT", d.TimelineLimit),
		MonthlyLimit:         getEnvAsInt("SCORING_MONTHLY_LIMIT", d.MonthlyLimit),
		NewProtocolWindow:    getEnvAsDuration("SCORING_NEW_PROTOCOL_WINDOW", d.NewProtocolWindow),

		ProfitabilityWinRateWeight:         getEnvAsFloat("SCORING_PROFITABILITY_WIN_RATE_WEIGHT", d.ProfitabilityWinRateWeight),
		ProfitabilityROIWeight:             getEnvAsFloat("SCORING_PROFITABILITY_ROI_WEIGHT", d.ProfitabilityROIWeight),
		ProfitabilityDiversificationWeight: getEnvAsFloat("SCORING_PROFITABILITY_DIVERSIFICATION_WEIGHT", d.ProfitabilityDiversificationWeight),
		ROINormalizer:                      getEnvAsFloat("SCORING_ROI_NORMALIZER", d.ROINormalizer),

		RiskConcentrationWeight: getEnvAsFloat("SCORING_RISK_CONCENTRATION_WEIGHT", d.RiskConcentrationWeight),
		RiskLeverageWeight:      getEnvAsFloat("SCORING_RISK_LEVERAGE_WEIGHT", d.RiskLeverageWeight),
		RiskVolatilityWeight:    getEnvAsFloat("SCORING_RISK_VOLATILITY_WEIGHT", d.RiskVolatilityWeight),
		VolatilePnLPercent:      getEnvAsFloat("SCORING_VOLATILE_PNL_PERCENT", d.VolatilePnLPercent),

		AggressiveMaxHoldDays:   getEnvAsFloat("SCORING_AGGRESSIVE_MAX_HOLD_DAYS", d.AggressiveMaxHoldDays),
		AggressiveMinRisk:       getEnvAsFloat("SCORING_AGGRESSIVE_MIN_RISK", d.AggressiveMinRisk),
		ConservativeMinHoldDays: getEnvAsFloat("SCORING_CONSERVATIVE_MIN_HOLD_DAYS", d.ConservativeMinHoldDays),
		ConservativeMaxRisk:     getEnvAsFloat("SCORING_CONSERVATIVE_MAX_RISK", d.ConservativeMaxRisk),
		ConservativeMinWinRate:  getEnvAsFloat("SCORING_CONSERVATIVE_MIN_WIN_RATE", d.ConservativeMinWinRate),

		SignalMinBuyerPercent:      getEnvAsFloat("SCORING_SIGNAL_MIN_BUYER_PERCENT", d.SignalMinBuyerPercent),
		SignalMinVolume:            getEnvAsFloat("SCORING_SIGNAL_MIN_VOLUME", d.SignalMinVolume),
		SignalConfidenceMultiplier: getEnvAsFloat("SCORING_SIGNAL_CONFIDENCE_MULTIPLIER", d.SignalConfidenceMultiplier),
		TopPerformerProfitability:  getEnvAsFloat("SCORING_TOP_PERFORMER_PROFITABILITY", d.TopPerformerProfitability),
		TopPerformerWinRate:        getEnvAsFloat("SCORING_TOP_PERFORMER_WIN_RATE", d.TopPerformerWinRate),
		TopPerformerROI:            getEnvAsFloat("SCORING_TOP_PERFORMER_ROI", d.TopPerformerROI),
		TopPerformerLimit:          getEnvAsInt("SCORING_TOP_PERFORMER_LIMIT", d.TopPerformerLimit),
		AirdropMinAdoption:         getEnvAsFloat("SCORING_AIRDROP_MIN_ADOPTION", d.AirdropMinAdoption),
		AirdropLimit:               getEnvAsInt("SCORING_AIRDROP_LIMIT", d.AirdropLimit),
		AirdropUsedProbability:     getEnvAsInt("SCORING_AIRDROP_USED_PROBABILITY", d.AirdropUsedProbability),
		AirdropUnusedProbability:   getEnvAsInt("SCORING_AIRDROP_UNUSED_PROBABILITY", d.AirdropUnusedProbability),

		CorrelationWindow: getEnvAsDuration("SCORING_CORRELATION_WINDOW", d.CorrelationWindow),
	}
}

// loadChainConfigs parses ENABLED_CHAINS as a comma-separated list of chain ids
func loadChainConfigs() ChainsConfig {
	raw := strings.Split(getEnv("ENABLED_CHAINS", "1,10,137,8453,42161"), ",")

	enabled := make([]int, 0, len(raw))
	for _, part := range raw {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil || id <= 0 {
			continue
		}
		enabled = append(enabled, id)
	}

	return ChainsConfig{Enabled: enabled}
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat gets an environment variable as a float with a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
