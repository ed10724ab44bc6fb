package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/jobyard/internal/config"
	"github.com/zulandar/jobyard/internal/db"
	"github.com/zulandar/jobyard/internal/geocode"
	"github.com/zulandar/jobyard/internal/notify"
	"github.com/zulandar/jobyard/internal/notify/discord"
	"github.com/zulandar/jobyard/internal/notify/redis"
	"github.com/zulandar/jobyard/internal/notify/slack"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func addConfigFlag(cmd *cobra.Command, configPath *string) {
	cmd.Flags().StringVarP(configPath, "config", "c", defaultConfigPath, "path to Jobyard config file")
}

// connectFromConfig loads the config file and opens the configured database.
func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return cfg, gormDB, nil
}

// buildNotifier assembles the configured new-match sinks. Matches are always
// logged. The returned cleanup closes any sink holding a connection.
func buildNotifier(cfg *config.Config, log *zap.Logger) (notify.Notifier, func(), error) {
	sinks := notify.Multi{notify.Log{L: log}}
	cleanup := func() {}

	if c := cfg.Notify.Slack; c.BotToken != "" {
		n, err := slack.New(slack.Opts{BotToken: c.BotToken, ChannelID: c.ChannelID})
		if err != nil {
			return nil, cleanup, err
		}
		sinks = append(sinks, n)
	}
	if c := cfg.Notify.Discord; c.BotToken != "" {
		n, err := discord.New(discord.Opts{BotToken: c.BotToken, ChannelID: c.ChannelID})
		if err != nil {
			return nil, cleanup, err
		}
		sinks = append(sinks, n)
	}
	if c := cfg.Notify.Redis; c.Addr != "" {
		n, err := redis.New(redis.Opts{Addr: c.Addr, Channel: c.Channel})
		if err != nil {
			return nil, cleanup, err
		}
		sinks = append(sinks, n)
		cleanup = func() { n.Close() }
	}
	return sinks, cleanup, nil
}

func buildGeocoder(cfg *config.Config) geocode.Geocoder {
	if !cfg.Geocode.Enabled {
		return geocode.Disabled{}
	}
	return geocode.NewOpenMeteo(cfg.Geocode.BaseURL, cfg.Geocode.Timeout)
}
