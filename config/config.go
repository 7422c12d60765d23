package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ScorerBackendOpenAI = "openai"
	ScorerBackendVader  = "vader"

	CacheBackendFile     = "file"
	CacheBackendValkey   = "valkey"
	CacheBackendDynamoDB = "dynamodb"
	CacheBackendMemory   = "memory"
)

type Config struct {
	Env      string
	LogLevel slog.Level

	HTTP         HTTPConfig
	Ticker       TickerConfig
	Mentions     MentionsConfig
	Reddit       RedditConfig
	Scorer       ScorerConfig
	OpenAI       OpenAIConfig
	AlphaVantage AlphaVantageConfig
	PriceCache   PriceCacheConfig
	Valkey       ValkeyConfig
	DynamoDB     DynamoDBConfig
}

type HTTPConfig struct {
	Addr           string
	RequestTimeout time.Duration
	AllowedOrigins []string
}

type TickerConfig struct {
	Symbol      string
	CompanyName string
}

type MentionsConfig struct {
	Terms              []string
	Communities        []string
	NativeCommunities  []string
	RecencyWindow      time.Duration
	DefaultLimit       int
	MaxLimit           int
	CollectConcurrency int
	ScoreConcurrency   int
}

type RedditConfig struct {
	ClientID          string
	ClientSecret      string
	UserAgent         string
	AuthURL           string
	APIURL            string
	SearchSort        string
	RequestsPerMinute int
	Timeout           time.Duration
}

type ScorerConfig struct {
	Backend string
}

type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

type AlphaVantageConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type PriceCacheConfig struct {
	Backend      string
	FilePath     string
	TTL          time.Duration
	MaxBars      int
	WarmInterval time.Duration
}

type ValkeyConfig struct {
	Addr     string
	Password string
	TLS      bool
	Key      string
}

type DynamoDBConfig struct {
	Region   string
	Endpoint string
	Table    string
	Key      string
}

// Load builds the configuration from the process environment. Call LoadEnv
// first to pick up the .env file for the current APP_ENV.
func Load() (*Config, error) {
	cfg := &Config{
		Env: getEnv("APP_ENV", "dev"),
		HTTP: HTTPConfig{
			Addr:           getEnv("HTTP_ADDR", ":8000"),
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Ticker: TickerConfig{
			Symbol:      getEnv("TICKER", "NVDA"),
			CompanyName: getEnv("COMPANY_NAME", "NVIDIA"),
		},
		Mentions: MentionsConfig{
			Terms:             getEnvList("TICKER_TERMS", []string{"NVDA", "Nvidia", "nvidia", "NVIDIA", "nvda"}),
			Communities:       getEnvList("COMMUNITIES", []string{"wallstreetbets", "stocks", "investing", "nvidia"}),
			NativeCommunities: getEnvList("NATIVE_COMMUNITIES", []string{"nvidia"}),
		},
		Reddit: RedditConfig{
			ClientID:     os.Getenv("REDDIT_CLIENT_ID"),
			ClientSecret: os.Getenv("REDDIT_CLIENT_SECRET"),
			UserAgent:    getEnv("REDDIT_USER_AGENT", "tickerflow-bot/0.1"),
			AuthURL:      getEnv("REDDIT_AUTH_URL", "https://www.reddit.com/api/v1/access_token"),
			APIURL:       getEnv("REDDIT_API_URL", "https://oauth.reddit.com"),
			SearchSort:   getEnv("REDDIT_SEARCH_SORT", "relevance"),
		},
		Scorer: ScorerConfig{
			Backend: strings.ToLower(getEnv("SCORER_BACKEND", ScorerBackendOpenAI)),
		},
		OpenAI: OpenAIConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
			Model:   getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		},
		AlphaVantage: AlphaVantageConfig{
			APIKey:  os.Getenv("ALPHA_VANTAGE_API_KEY"),
			BaseURL: getEnv("ALPHA_VANTAGE_BASE_URL", "https://www.alphavantage.co"),
		},
		PriceCache: PriceCacheConfig{
			Backend:  strings.ToLower(getEnv("PRICE_CACHE_BACKEND", CacheBackendFile)),
			FilePath: getEnv("PRICE_CACHE_FILE", "stock_cache.json"),
		},
		Valkey: ValkeyConfig{
			Addr:     os.Getenv("VALKEY_INIT_ADDRESS"),
			Password: os.Getenv("VALKEY_PASSWORD"),
			TLS:      os.Getenv("VALKEY_TLS") == "true",
			Key:      getEnv("VALKEY_CACHE_KEY", "tickerflow:price_series"),
		},
		DynamoDB: DynamoDBConfig{
			Region:   getEnv("AWS_REGION", "us-west-2"),
			Endpoint: os.Getenv("AWS_ENDPOINT"),
			Table:    getEnv("DYNAMODB_CACHE_TABLE", "PriceSeriesCache"),
			Key:      getEnv("DYNAMODB_CACHE_KEY", "price_series"),
		},
	}

	var err error
	var errs []error
	collect := func(e error) {
		if e != nil {
			errs = append(errs, e)
		}
	}

	cfg.LogLevel, err = getEnvLevel("LOG_LEVEL", slog.LevelInfo)
	collect(err)

	cfg.HTTP.RequestTimeout, err = getEnvDuration("HTTP_REQUEST_TIMEOUT", 90*time.Second)
	collect(err)

	cfg.Mentions.RecencyWindow, err = getEnvDuration("RECENCY_WINDOW", 8*24*time.Hour)
	collect(err)
	cfg.Mentions.DefaultLimit, err = getEnvInt("MENTIONS_DEFAULT_LIMIT", 10)
	collect(err)
	cfg.Mentions.MaxLimit, err = getEnvInt("MENTIONS_MAX_LIMIT", 100)
	collect(err)
	cfg.Mentions.CollectConcurrency, err = getEnvInt("COLLECT_CONCURRENCY", 4)
	collect(err)
	cfg.Mentions.ScoreConcurrency, err = getEnvInt("SCORE_CONCURRENCY", 4)
	collect(err)

	cfg.Reddit.RequestsPerMinute, err = getEnvInt("REDDIT_REQUESTS_PER_MINUTE", 90)
	collect(err)
	cfg.Reddit.Timeout, err = getEnvDuration("REDDIT_TIMEOUT", 15*time.Second)
	collect(err)

	cfg.OpenAI.Temperature, err = getEnvFloat("OPENAI_TEMPERATURE", 0.7)
	collect(err)
	cfg.OpenAI.MaxTokens, err = getEnvInt("OPENAI_MAX_TOKENS", 150)
	collect(err)
	cfg.OpenAI.Timeout, err = getEnvDuration("OPENAI_TIMEOUT", 30*time.Second)
	collect(err)

	cfg.AlphaVantage.Timeout, err = getEnvDuration("ALPHA_VANTAGE_TIMEOUT", 15*time.Second)
	collect(err)

	cfg.PriceCache.TTL, err = getEnvDuration("PRICE_CACHE_TTL", time.Hour)
	collect(err)
	cfg.PriceCache.MaxBars, err = getEnvInt("PRICE_CACHE_MAX_BARS", 100)
	collect(err)
	cfg.PriceCache.WarmInterval, err = getEnvDuration("PRICE_CACHE_WARM_INTERVAL", 0)
	collect(err)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// Validate checks the settings the selected backends depend on.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Mentions.Communities) == 0 {
		errs = append(errs, errors.New("COMMUNITIES must name at least one community"))
	}
	if len(c.Mentions.Terms) == 0 {
		errs = append(errs, errors.New("TICKER_TERMS must name at least one search term"))
	}
	if c.Mentions.RecencyWindow <= 0 {
		errs = append(errs, errors.New("RECENCY_WINDOW must be positive"))
	}
	if c.Mentions.MaxLimit < 1 {
		errs = append(errs, errors.New("MENTIONS_MAX_LIMIT must be at least 1"))
	}
	if c.Mentions.DefaultLimit < 1 || c.Mentions.DefaultLimit > c.Mentions.MaxLimit {
		errs = append(errs, fmt.Errorf("MENTIONS_DEFAULT_LIMIT must be between 1 and %d", c.Mentions.MaxLimit))
	}
	if c.Reddit.ClientID == "" || c.Reddit.ClientSecret == "" {
		errs = append(errs, errors.New("REDDIT_CLIENT_ID and REDDIT_CLIENT_SECRET are required"))
	}

	switch c.Scorer.Backend {
	case ScorerBackendOpenAI:
		if c.OpenAI.APIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai scorer"))
		}
	case ScorerBackendVader:
	default:
		errs = append(errs, fmt.Errorf("unknown SCORER_BACKEND %q", c.Scorer.Backend))
	}

	if c.AlphaVantage.APIKey == "" {
		errs = append(errs, errors.New("ALPHA_VANTAGE_API_KEY is required"))
	}
	if c.PriceCache.TTL <= 0 {
		errs = append(errs, errors.New("PRICE_CACHE_TTL must be positive"))
	}
	if c.PriceCache.MaxBars < 1 {
		errs = append(errs, errors.New("PRICE_CACHE_MAX_BARS must be at least 1"))
	}

	switch c.PriceCache.Backend {
	case CacheBackendFile:
		if c.PriceCache.FilePath == "" {
			errs = append(errs, errors.New("PRICE_CACHE_FILE is required for the file cache"))
		}
	case CacheBackendValkey:
		if c.Valkey.Addr == "" {
			errs = append(errs, errors.New("VALKEY_INIT_ADDRESS is required for the valkey cache"))
		}
	case CacheBackendDynamoDB:
		if c.DynamoDB.Table == "" {
			errs = append(errs, errors.New("DYNAMODB_CACHE_TABLE is required for the dynamodb cache"))
		}
	case CacheBackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown PRICE_CACHE_BACKEND %q", c.PriceCache.Backend))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getEnvLevel(key string, defaultValue slog.Level) (slog.Level, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return defaultValue, fmt.Errorf("%s: %w", key, err)
	}
	return level, nil
}
