package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	AMQP     AMQPConfig
	Booking  BookingConfig
}

type AppConfig struct {
	Name     string
	Port     string
	Debug    bool
	LogPath  string
	Timezone string
}

// Location resolves Timezone, falling back to UTC.
func (c AppConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "UTC" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", c.Timezone, err)
	}
	return loc, nil
}

type DatabaseConfig struct {
	Host        string
	Port        string
	Name        string
	User        string
	Password    string
	MaxConns    int32
	AutoMigrate bool
}

type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	CalendarTTL time.Duration
}

type AMQPConfig struct {
	URL      string
	Exchange string
}

type BookingConfig struct {
	MaxRecurrenceYears int
	SlotMinutes        int
	ReconcileCron      string
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	viper.SetDefault("APP_NAME", "room-reservation")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("APP_TIMEZONE", "UTC")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("DB_AUTO_MIGRATE", true)
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CALENDAR_CACHE_TTL_SECONDS", 60)
	viper.SetDefault("AMQP_EXCHANGE", "room-reservation.events")
	viper.SetDefault("BOOKING_MAX_RECURRENCE_YEARS", 2)
	viper.SetDefault("BOOKING_SLOT_MINUTES", 30)
	viper.SetDefault("RECONCILE_CRON", "@every 1m")

	// .env is optional; environment variables always win.
	if err := viper.ReadInConfig(); err != nil {
		var pathErr *fs.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, err
		}
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:     viper.GetString("APP_NAME"),
			Port:     viper.GetString("PORT"),
			Debug:    viper.GetBool("DEBUG"),
			LogPath:  viper.GetString("LOG_PATH"),
			Timezone: viper.GetString("APP_TIMEZONE"),
		},
		Database: DatabaseConfig{
			Host:        viper.GetString("DB_HOST"),
			Port:        viper.GetString("DB_PORT"),
			Name:        viper.GetString("DB_NAME"),
			User:        viper.GetString("DB_USER"),
			Password:    viper.GetString("DB_PASS"),
			MaxConns:    viper.GetInt32("DB_MAX_CONNS"),
			AutoMigrate: viper.GetBool("DB_AUTO_MIGRATE"),
		},
		Redis: RedisConfig{
			Addr:        viper.GetString("REDIS_ADDR"),
			Password:    viper.GetString("REDIS_PASSWORD"),
			DB:          viper.GetInt("REDIS_DB"),
			CalendarTTL: time.Duration(viper.GetInt("CALENDAR_CACHE_TTL_SECONDS")) * time.Second,
		},
		AMQP: AMQPConfig{
			URL:      viper.GetString("AMQP_URL"),
			Exchange: viper.GetString("AMQP_EXCHANGE"),
		},
		Booking: BookingConfig{
			MaxRecurrenceYears: viper.GetInt("BOOKING_MAX_RECURRENCE_YEARS"),
			SlotMinutes:        viper.GetInt("BOOKING_SLOT_MINUTES"),
			ReconcileCron:      viper.GetString("RECONCILE_CRON"),
		},
	}

	if config.Database.MaxConns < 1 {
		config.Database.MaxConns = 1
	}
	if config.Booking.MaxRecurrenceYears < 1 {
		return nil, fmt.Errorf("BOOKING_MAX_RECURRENCE_YEARS must be positive")
	}

	return config, nil
}
