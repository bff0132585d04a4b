package conf

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/gloriamundo/gloriamundo/internal/utils/log"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const DefaultModel = "anthropic/claude-3-haiku-20240307"

type Server struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

type Database struct {
	Type string `mapstructure:"type"`
	Path string `mapstructure:"path"`
	URL  string `mapstructure:"url"`
}

type OpenRouter struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	Referer        string `mapstructure:"referer"`
	Title          string `mapstructure:"title"`
	ModelFilter    string `mapstructure:"model_filter"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type Catalog struct {
	CacheTTLMinutes int    `mapstructure:"cache_ttl_minutes"`
	DefaultModel    string `mapstructure:"default_model"`
}

// Fallback holds the ordered priority lists walked when a requested model
// is unavailable, one list per content class.
type Fallback struct {
	Image    []string `mapstructure:"image"`
	PDFOrRAG []string `mapstructure:"pdf_or_rag"`
	Text     []string `mapstructure:"text"`
}

type Redis struct {
	URL string `mapstructure:"url"`
}

type Auth struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type Chat struct {
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute"`
	HistoryLimit       int `mapstructure:"history_limit"`
}

type Metrics struct {
	Enabled bool `mapstructure:"enabled"`
}

type Config struct {
	Server     Server     `mapstructure:"server"`
	Log        Log        `mapstructure:"log"`
	Database   Database   `mapstructure:"database"`
	OpenRouter OpenRouter `mapstructure:"openrouter"`
	Catalog    Catalog    `mapstructure:"catalog"`
	Fallback   Fallback   `mapstructure:"fallback"`
	Redis      Redis      `mapstructure:"redis"`
	Auth       Auth       `mapstructure:"auth"`
	Chat       Chat       `mapstructure:"chat"`
	Metrics    Metrics    `mapstructure:"metrics"`
}

var AppConfig Config

var (
	watchMu       sync.Mutex
	fallbackHooks []func(Fallback)
)

func Load(path string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf("failed to load .env: %v", err)
	}

	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("json")
		viper.AddConfigPath("data")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix(APP_NAME)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	_ = viper.BindEnv("openrouter.api_key", strings.ToUpper(APP_NAME)+"_OPENROUTER_API_KEY", "OPENROUTER_API_KEY")
	_ = viper.BindEnv("database.url", strings.ToUpper(APP_NAME)+"_DATABASE_URL", "DATABASE_URL")
	_ = viper.BindEnv("redis.url", strings.ToUpper(APP_NAME)+"_REDIS_URL", "REDIS_URL")

	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		log.Infof("Using config file: %s", viper.ConfigFileUsed())
	} else {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Infof("Config file not found, creating default config")
			if err := os.MkdirAll("data", 0755); err != nil {
				log.Errorf("Failed to create data directory: %v", err)
			}
			if err := viper.SafeWriteConfigAs("data/config.json"); err != nil {
				log.Errorf("Failed to create default config: %v", err)
			}
		} else {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}
	return nil
}

// OnFallbackChange registers fn to receive the fallback lists every time the
// config file is rewritten. Watching starts with the first registration.
func OnFallbackChange(fn func(Fallback)) {
	watchMu.Lock()
	defer watchMu.Unlock()
	first := len(fallbackHooks) == 0
	fallbackHooks = append(fallbackHooks, fn)
	if !first || viper.ConfigFileUsed() == "" {
		return
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		var fb Fallback
		if err := viper.UnmarshalKey("fallback", &fb); err != nil {
			log.Warnf("config reload: invalid fallback section: %v", err)
			return
		}
		log.Infof("config reload: fallback lists updated from %s", e.Name)
		watchMu.Lock()
		AppConfig.Fallback = fb
		hooks := append([]func(Fallback){}, fallbackHooks...)
		watchMu.Unlock()
		for _, h := range hooks {
			h(fb)
		}
	})
	viper.WatchConfig()
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("database.type", "sqlite")
	viper.SetDefault("database.path", "data/data.db")
	viper.SetDefault("database.url", "")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")

	viper.SetDefault("openrouter.api_key", "")
	viper.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	viper.SetDefault("openrouter.referer", "")
	viper.SetDefault("openrouter.title", "GloriaMundo")
	viper.SetDefault("openrouter.model_filter", "")
	viper.SetDefault("openrouter.timeout_seconds", 300)

	viper.SetDefault("catalog.cache_ttl_minutes", 60)
	viper.SetDefault("catalog.default_model", DefaultModel)

	def := DefaultFallback()
	viper.SetDefault("fallback.image", def.Image)
	viper.SetDefault("fallback.pdf_or_rag", def.PDFOrRAG)
	viper.SetDefault("fallback.text", def.Text)

	viper.SetDefault("redis.url", "")
	viper.SetDefault("auth.jwt_secret", "")
	viper.SetDefault("chat.rate_limit_per_minute", 30)
	viper.SetDefault("chat.history_limit", 20)
	viper.SetDefault("metrics.enabled", true)
}

func DefaultFallback() Fallback {
	return Fallback{
		Image: []string{
			"openai/gpt-4o",
			"openai/gpt-4o-2024-05-13",
			"anthropic/claude-3.5-sonnet",
			"google/gemini-pro-1.5",
			"google/gemini-flash-1.5",
		},
		PDFOrRAG: []string{
			"anthropic/claude-3.5-sonnet",
			"openai/gpt-4o",
			"openai/gpt-4o-2024-05-13",
			"google/gemini-pro-1.5",
			"anthropic/claude-3-haiku-20240307",
		},
		Text: []string{
			"openai/gpt-4o-2024-05-13",
			"openai/gpt-4o",
			"anthropic/claude-3.5-sonnet",
			"anthropic/claude-3-haiku-20240307",
			"google/gemini-pro",
			"meta-llama/llama-3-70b-instruct",
		},
	}
}
