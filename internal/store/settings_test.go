package store

import (
	"testing"

	"joingate/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsDefaultAndOverride(t *testing.T) {
	s := NewSettings(testDB(t))

	assert.Equal(t, "120", s.Get(model.SettingVerifyTimeout, "120"))
	assert.Equal(t, 3, s.GetInt(model.SettingMaxAttempts, 3))

	require.NoError(t, s.Set(model.SettingMaxAttempts, "5"))
	assert.Equal(t, 5, s.GetInt(model.SettingMaxAttempts, 3))

	// Overwrites replace, not append.
	require.NoError(t, s.Set(model.SettingMaxAttempts, "2"))
	assert.Equal(t, 2, s.GetInt(model.SettingMaxAttempts, 3))
}

func TestSettingsGetIntFallsBackOnGarbage(t *testing.T) {
	s := NewSettings(testDB(t))

	require.NoError(t, s.Set(model.SettingVerifyTimeout, "soon"))
	assert.Equal(t, 120, s.GetInt(model.SettingVerifyTimeout, 120))
}
