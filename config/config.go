package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Log       Logger         `mapstructure:"logger"`
	DB        Database       `mapstructure:"database"`
	API       API            `mapstructure:"api"`
	Backtest  Backtest       `mapstructure:"backtest"`
	Binance   Binance        `mapstructure:"binance"`
	Cache     Cache          `mapstructure:"cache"`
	Scheduler Scheduler      `mapstructure:"scheduler"`
	Telegram  TelegramConfig `mapstructure:"telegram"`
	Gemini    Gemini         `mapstructure:"gemini"`
}

type Logger struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type Database struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	TimeZone        string `mapstructure:"time_zone"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

type API struct {
	Port               int           `mapstructure:"port"`
	RateLimitPerSecond float64       `mapstructure:"rate_limit_per_second"`
	RateLimitBurst     int           `mapstructure:"rate_limit_burst"`
	RateLimitExpiresIn time.Duration `mapstructure:"rate_limit_expires_in"`
}

// Backtest holds the account-level simulation settings. Strategy knobs nest
// under it so a single config file describes one complete run setup.
type Backtest struct {
	InitialCapital float64  `mapstructure:"initial_capital"`
	CommissionRate float64  `mapstructure:"commission_rate"`
	EntryFraction  float64  `mapstructure:"entry_fraction"`
	Strategy       Strategy `mapstructure:"strategy"`
}

type Strategy struct {
	FiboLookbackPeriod int     `mapstructure:"fibo_lookback_period"`
	RSIOverbought      float64 `mapstructure:"rsi_overbought"`
	ADXTrendThreshold  float64 `mapstructure:"adx_trend_threshold"`
	BuyScoreThreshold  int     `mapstructure:"buy_score_threshold"`
	StopLossPercent    float64 `mapstructure:"stop_loss_percent"`
}

type Binance struct {
	BaseURL             string        `mapstructure:"base_url"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	MaxKlinesPerRequest int           `mapstructure:"max_klines_per_request"`
	CacheTTL            time.Duration `mapstructure:"cache_ttl"`
}

type Cache struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

type Scheduler struct {
	Enabled         bool             `mapstructure:"enabled"`
	MaxConcurrency  int              `mapstructure:"max_concurrency"`
	TimeoutDuration time.Duration    `mapstructure:"timeout_duration"`
	Entries         []SchedulerEntry `mapstructure:"entries"`
}

// SchedulerEntry describes one recurring backtest job.
type SchedulerEntry struct {
	Name           string `mapstructure:"name"`
	CronExpression string `mapstructure:"cron_expression"`
	Symbol         string `mapstructure:"symbol"`
	Timeframe      string `mapstructure:"timeframe"`
	Source         string `mapstructure:"source"`
	Limit          int    `mapstructure:"limit"`
}

type TelegramConfig struct {
	BotToken                  string        `mapstructure:"bot_token"`
	ChatID                    string        `mapstructure:"chat_id"`
	TimeoutDuration           time.Duration `mapstructure:"timeout_duration"`
	MaxGlobalRequestPerSecond int           `mapstructure:"max_global_request_per_second"`
	MaxChatRequestPerSecond   int           `mapstructure:"max_chat_request_per_second"`
}

type Gemini struct {
	APIKey              string        `mapstructure:"api_key"`
	BaseURL             string        `mapstructure:"base_url"`
	BaseModel           string        `mapstructure:"base_model"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	MaxTokenPerMinute   int           `mapstructure:"max_token_per_minute"`
}

func Load() (*Config, error) {
	// .env is optional; real environments inject variables directly.
	_ = godotenv.Load()

	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		fmt.Println("No config file loaded:", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.encoding", "console")

	// An empty host means no database: the engine runs fine without one,
	// it just skips run persistence and the db candle source.
	viper.SetDefault("database.host", "")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.name", "in_shadow_trader")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.time_zone", "UTC")
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.max_open_conns", 20)
	viper.SetDefault("database.conn_max_lifetime", "30m")
	viper.SetDefault("database.log_level", "Warn")

	viper.SetDefault("api.port", 8080)
	viper.SetDefault("api.rate_limit_per_second", 10)
	viper.SetDefault("api.rate_limit_burst", 30)
	viper.SetDefault("api.rate_limit_expires_in", 3*time.Minute)

	viper.SetDefault("backtest.initial_capital", 10000.0)
	viper.SetDefault("backtest.commission_rate", 0.001)
	viper.SetDefault("backtest.entry_fraction", 0.99)
	viper.SetDefault("backtest.strategy.fibo_lookback_period", 50)
	viper.SetDefault("backtest.strategy.rsi_overbought", 70.0)
	viper.SetDefault("backtest.strategy.adx_trend_threshold", 25.0)
	viper.SetDefault("backtest.strategy.buy_score_threshold", 5)
	viper.SetDefault("backtest.strategy.stop_loss_percent", 0.03)

	viper.SetDefault("binance.base_url", "https://api.binance.com")
	viper.SetDefault("binance.timeout", 10*time.Second)
	viper.SetDefault("binance.max_request_per_minute", 1200)
	viper.SetDefault("binance.max_klines_per_request", 1000)
	viper.SetDefault("binance.cache_ttl", time.Minute)

	viper.SetDefault("cache.default_expiration", 5*time.Minute)
	viper.SetDefault("cache.cleanup_interval", 10*time.Minute)

	viper.SetDefault("scheduler.enabled", false)
	viper.SetDefault("scheduler.max_concurrency", 5)
	viper.SetDefault("scheduler.timeout_duration", 5*time.Minute)

	viper.SetDefault("telegram.timeout_duration", 10*time.Second)
	viper.SetDefault("telegram.max_global_request_per_second", 30)
	viper.SetDefault("telegram.max_chat_request_per_second", 1)

	viper.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta/models")
	viper.SetDefault("gemini.base_model", "gemini-2.0-flash")
	viper.SetDefault("gemini.timeout", 60*time.Second)
	viper.SetDefault("gemini.max_request_per_minute", 10)
	viper.SetDefault("gemini.max_token_per_minute", 1000000)
}
