package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "LISTENER"

// Backoff strategies accepted by the backoff key.
const (
	BackoffFixed       = "fixed"
	BackoffExponential = "exponential"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL      string
	AccountID   string
	MethodName  string
	StartHeight uint64

	SettleDelay  time.Duration
	PollInterval time.Duration
	Backoff      string
	BackoffBase  time.Duration
	BackoffMax   time.Duration
	MaxRetries   int
	ScanAll      bool
	RPCTimeout   time.Duration
	RPCRPS       float64

	Out           string
	Stdout        bool
	PGDSN         string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisList     string
	RedisChannel  string
	KafkaBrokers  []string
	KafkaTopic    string

	MetricsAddr string
	LogLevel    string
	LogFile     string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := newViper()

	v.SetDefault("rpc", "https://rpc.testnet.near.org")
	v.SetDefault("settle-delay", 2*time.Second)
	v.SetDefault("poll-interval", 2*time.Second)
	v.SetDefault("backoff", BackoffFixed)
	v.SetDefault("backoff-base", 5*time.Second)
	v.SetDefault("backoff-max", time.Minute)
	v.SetDefault("max-retries", 0)
	v.SetDefault("rpc-timeout", 30*time.Second)
	v.SetDefault("out", "./data/events.jsonl")
	v.SetDefault("redis-list", "near_events")
	v.SetDefault("log-level", "info")

	if err := readIn(v, cfgFile, flags); err != nil {
		return Config{}, err
	}

	cfg := Config{
		RPCURL:        v.GetString("rpc"),
		AccountID:     v.GetString("account-id"),
		MethodName:    v.GetString("method-name"),
		StartHeight:   v.GetUint64("start-height"),
		SettleDelay:   v.GetDuration("settle-delay"),
		PollInterval:  v.GetDuration("poll-interval"),
		Backoff:       strings.ToLower(v.GetString("backoff")),
		BackoffBase:   v.GetDuration("backoff-base"),
		BackoffMax:    v.GetDuration("backoff-max"),
		MaxRetries:    v.GetInt("max-retries"),
		ScanAll:       v.GetBool("scan-all"),
		RPCTimeout:    v.GetDuration("rpc-timeout"),
		RPCRPS:        v.GetFloat64("rpc-rps"),
		Out:           v.GetString("out"),
		Stdout:        v.GetBool("stdout"),
		PGDSN:         v.GetString("pg-dsn"),
		RedisAddr:     v.GetString("redis-addr"),
		RedisPassword: v.GetString("redis-password"),
		RedisDB:       v.GetInt("redis-db"),
		RedisList:     v.GetString("redis-list"),
		RedisChannel:  v.GetString("redis-channel"),
		KafkaBrokers:  getStringSlice(v, "kafka-brokers"),
		KafkaTopic:    v.GetString("kafka-topic"),
		MetricsAddr:   v.GetString("metrics-addr"),
		LogLevel:      v.GetString("log-level"),
		LogFile:       v.GetString("log-file"),
	}

	switch cfg.Backoff {
	case BackoffFixed, BackoffExponential:
	default:
		return Config{}, fmt.Errorf("unknown backoff %q (want %s or %s)", cfg.Backoff, BackoffFixed, BackoffExponential)
	}
	if cfg.MaxRetries < 0 {
		return Config{}, fmt.Errorf("max-retries must not be negative")
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// readIn binds flags and reads cfgFile, or ./config.* when present.
func readIn(v *viper.Viper, cfgFile string, flags *pflag.FlagSet) error {
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	return cleanStrings(strings.Split(input, ","))
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
