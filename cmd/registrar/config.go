package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"event-registration/client"
	"event-registration/models"
	"event-registration/session"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type sessionConfig struct {
	Driver    string        `mapstructure:"driver"`
	Dir       string        `mapstructure:"dir"`
	RedisAddr string        `mapstructure:"redis_addr"`
	ID        string        `mapstructure:"id"`
	TTL       time.Duration `mapstructure:"ttl"`
}

type checkoutConfig struct {
	ScriptURL string `mapstructure:"script_url"`
	Addr      string `mapstructure:"addr"`
}

type cliConfig struct {
	BaseURL   string         `mapstructure:"base_url"`
	Timeout   time.Duration  `mapstructure:"timeout"`
	ReadyWait time.Duration  `mapstructure:"ready_wait"`
	Session   sessionConfig  `mapstructure:"session"`
	Checkout  checkoutConfig `mapstructure:"checkout"`
	Sports    []models.Sport `mapstructure:"sports"`
}

func defaultSessionDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ".registrar"
	}
	return filepath.Join(dir, "registrar")
}

func initConfig(cmd *cobra.Command) error {
	viper.SetDefault("base_url", client.DefaultBaseURL)
	viper.SetDefault("timeout", client.DefaultTimeout)
	viper.SetDefault("ready_wait", client.DefaultReadyWait)
	viper.SetDefault("session.driver", "file")
	viper.SetDefault("session.dir", defaultSessionDir())
	viper.SetDefault("session.redis_addr", "localhost:6379")
	viper.SetDefault("session.id", "default")
	viper.SetDefault("session.ttl", 24*time.Hour)
	viper.SetDefault("checkout.addr", "127.0.0.1:0")

	viper.SetEnvPrefix("REGISTRAR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	_ = viper.BindPFlag("base_url", cmd.Flags().Lookup("base-url"))
	_ = viper.BindPFlag("timeout", cmd.Flags().Lookup("timeout"))

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("registrar")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func loadConfig() (cliConfig, error) {
	var cfg cliConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func (c cliConfig) sport(id string) (models.Sport, error) {
	for _, s := range c.Sports {
		if strings.EqualFold(s.ID, id) {
			return s, nil
		}
	}
	return models.Sport{}, fmt.Errorf("unknown sport %q", id)
}

func (c cliConfig) sessionStore() (session.Store, error) {
	switch c.Session.Driver {
	case "memory":
		return session.NewMemory(), nil
	case "file":
		return session.NewFile(c.Session.Dir), nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: c.Session.RedisAddr})
		return session.NewRedis(rdb, c.Session.ID, c.Session.TTL), nil
	default:
		return nil, fmt.Errorf("unknown session driver %q", c.Session.Driver)
	}
}

func (c cliConfig) apiClient() *client.Client {
	return client.New(c.BaseURL, c.Timeout)
}
