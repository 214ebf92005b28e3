package main

import (
	"fmt"
	"strings"

	"tutorbot/internal/cache"
	"tutorbot/internal/repository"

	"github.com/spf13/viper"
)

const (
	configPath   = "./"
	configName   = "config"
	configFormat = "yaml"
)

type Config struct {
	Database repository.Config `yaml:"database"`
	Redis    cache.Config      `yaml:"redis"`
	Server   ServerConfig      `yaml:"server"`

	Telegram TelegramConfig `yaml:"telegram"`
	Rewards  RewardsConfig  `yaml:"rewards"`

	LogLevel         string `yaml:"logLevel"`
	MetricsNamespace string `yaml:"metricsNamespace"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type TelegramConfig struct {
	BotToken    string  `yaml:"botToken"`
	BotUsername string  `yaml:"botUsername"`
	WebhookURL  string  `yaml:"webhookUrl"`
	AdminIDs    []int64 `yaml:"adminIds"`
}

type RewardsConfig struct {
	RegistrationFee         int `yaml:"registrationFee"`
	ReferralReward          int `yaml:"referralReward"`
	MinReferralsForWithdraw int `yaml:"minReferralsForWithdraw"`
	LeaderboardSize         int `yaml:"leaderboardSize"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(configName)
	viper.AddConfigPath(configPath)
	viper.SetConfigType(configFormat)

	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("rewards.registrationFee", 500)
	viper.SetDefault("rewards.referralReward", 30)
	viper.SetDefault("rewards.minReferralsForWithdraw", 4)
	viper.SetDefault("rewards.leaderboardSize", 10)
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("metricsNamespace", "tutorbot")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Telegram.BotToken == "" {
		return nil, fmt.Errorf("telegram.botToken is required")
	}

	return &cfg, nil
}
