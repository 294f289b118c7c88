package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadWithPath("nonexistent.env")
	require.NoError(t, err)

	assert.Equal(t, "eventbook", cfg.App.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 10, cfg.Booking.MaxTicketsPerBooking)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("BOOKING_MAX_TICKETS", "4")

	cfg, err := LoadWithPath("nonexistent.env")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Booking.MaxTicketsPerBooking)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := LoadWithPath("nonexistent.env")
		require.NoError(t, err)
		return cfg
	}

	cfg := valid()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.JWT.Secret = ""
	assert.Error(t, cfg.Validate())

	// the default secret is rejected in production only
	cfg = valid()
	cfg.App.Environment = "production"
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.App.Environment = "production"
	cfg.JWT.Secret = "a-real-secret"
	assert.NoError(t, cfg.Validate())

	cfg = valid()
	cfg.Booking.MaxTicketsPerBooking = 0
	assert.Error(t, cfg.Validate())
}
