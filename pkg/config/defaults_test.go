package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("SR_TEST_INT", "42")
	t.Setenv("SR_TEST_BAD_INT", "forty-two")
	t.Setenv("SR_TEST_BOOL", "false")
	t.Setenv("SR_TEST_DURATION", "250ms")
	t.Setenv("SR_TEST_LIST", " a, b ,,c ")

	assert.Equal(t, 42, getEnvInt("SR_TEST_INT", 7))
	assert.Equal(t, 7, getEnvInt("SR_TEST_BAD_INT", 7))
	assert.Equal(t, 7, getEnvInt("SR_TEST_MISSING", 7))
	assert.False(t, getEnvBool("SR_TEST_BOOL", true))
	assert.Equal(t, 250*time.Millisecond, getEnvDuration("SR_TEST_DURATION", time.Second))
	assert.Equal(t, []string{"a", "b", "c"}, getEnvList("SR_TEST_LIST", nil))
	assert.Equal(t, "fallback", getEnvString("SR_TEST_MISSING", "fallback"))
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "****", maskSecret("JWT_SECRET", "abc"))
	assert.Equal(t, "****", maskSecret("ADMIN_PASSWORD", "abc"))
	assert.Equal(t, "****", maskSecret("RESEND_API_KEY", "abc"))
	assert.Equal(t, "8080", maskSecret("PORT", "8080"))
	assert.Equal(t, "", maskSecret("JWT_SECRET", ""))
}
