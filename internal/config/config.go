package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// ShutdownGrace bounds how long in-flight requests may drain.
	ShutdownGrace time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	Group    string
	Consumer string
}

type StorageConfig struct {
	Endpoint            string
	PublicBaseURL       string
	AccessKey           string
	SecretKey           string
	BucketIllustrations string
	BucketRenders       string
	// RendersExpireDays is how long staged model output is kept. Zero leaves
	// the renders bucket without an expiry rule.
	RendersExpireDays int
	UseSSL            bool
	Region            string
}

type SecurityConfig struct {
	JWTAccessSecret string
	WebhookSecret   string
}

type GeminiConfig struct {
	APIKey          string
	TextModel       string
	ImageModel      string
	MaxOutputTokens int
	// RequestsPerMinute paces calls to the model API per process. Zero
	// disables pacing.
	RequestsPerMinute int
}

// GenerationConfig tunes the book pipeline.
type GenerationConfig struct {
	PreviewPages  int
	RunLeaseTTL   time.Duration
	StaleAfter    time.Duration
	SweepSchedule string
	FetchTimeout  time.Duration
	MaxFetchBytes int64
	PaymentBypass bool
}

type QueueConfig struct {
	ClaimInterval time.Duration
}

type LoggingConfig struct {
	Level string
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Security         SecurityConfig
	Gemini           GeminiConfig
	Generation       GenerationConfig
	Queues           QueueConfig
	Logging          LoggingConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("STORYBOOK")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (*AppConfig, error) {
	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Generation.PreviewPages < 0 {
		return nil, fmt.Errorf("generation.previewpages must not be negative")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "6m") // synchronous combined runs take minutes
	v.SetDefault("http.idletimeout", "60s")
	v.SetDefault("http.shutdowngrace", "15s")

	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.stream", "books:generate")
	v.SetDefault("redis.group", "book-workers")
	v.SetDefault("redis.consumer", "worker-1")

	v.SetDefault("storage.bucketillustrations", "illustrations")
	v.SetDefault("storage.bucketrenders", "renders")
	v.SetDefault("storage.rendersexpiredays", 1)
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")

	v.SetDefault("gemini.textmodel", "gemini-2.5-pro")
	v.SetDefault("gemini.imagemodel", "gemini-2.5-flash-image")
	v.SetDefault("gemini.maxoutputtokens", 4096)
	v.SetDefault("gemini.requestsperminute", 30)

	v.SetDefault("generation.previewpages", 8)
	v.SetDefault("generation.runleasettl", "15m")
	v.SetDefault("generation.staleafter", "30m")
	v.SetDefault("generation.sweepschedule", "0 */5 * * * *")
	v.SetDefault("generation.fetchtimeout", "60s")
	v.SetDefault("generation.maxfetchbytes", 25<<20)
	v.SetDefault("generation.paymentbypass", false)

	v.SetDefault("queues.claiminterval", "2m")

	v.SetDefault("logging.level", "")
}
