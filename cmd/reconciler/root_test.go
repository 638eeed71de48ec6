package main

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsFromFlags(t *testing.T) {
	flags := rootCmd.Flags()
	require.NoError(t, flags.Set("mode", "REMOTE"))
	require.NoError(t, flags.Set("token", "Bearer abc"))
	require.NoError(t, flags.Set("interval", "90s"))
	t.Cleanup(func() {
		_ = flags.Set("mode", modeLocal)
		_ = flags.Set("token", "")
	})

	s, err := loadSettings()
	require.NoError(t, err)
	assert.Equal(t, modeRemote, s.Mode)
	assert.Equal(t, "abc", s.Token)
	assert.Equal(t, 90*time.Second, s.Interval)
}

func TestLoadSettingsRejectsUnknownMode(t *testing.T) {
	viper.Set("mode", "sideways")
	t.Cleanup(func() { viper.Set("mode", modeLocal) })

	_, err := loadSettings()
	assert.ErrorContains(t, err, "unknown mode")
}
