package utils

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppConfigLocation(t *testing.T) {
	loc, err := AppConfig{}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	_, err = AppConfig{Timezone: "Mars/Olympus_Mons"}.Location()
	assert.ErrorContains(t, err, "load timezone")
}

func TestLoadConfig_EnvironmentOverridesDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Chdir(t.TempDir())

	t.Setenv("PORT", "9090")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("CALENDAR_CACHE_TTL_SECONDS", "5")
	t.Setenv("DB_MAX_CONNS", "0")

	config, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9090", config.App.Port)
	assert.Equal(t, "localhost:6379", config.Redis.Addr)
	assert.Equal(t, 5*time.Second, config.Redis.CalendarTTL)
	assert.EqualValues(t, 1, config.Database.MaxConns)
	assert.Equal(t, 2, config.Booking.MaxRecurrenceYears)
	assert.Equal(t, 30, config.Booking.SlotMinutes)
	assert.Equal(t, "@every 1m", config.Booking.ReconcileCron)
}

func TestLoadConfig_RejectsNonPositiveHorizon(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Chdir(t.TempDir())
	t.Setenv("BOOKING_MAX_RECURRENCE_YEARS", "0")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "BOOKING_MAX_RECURRENCE_YEARS")
}
