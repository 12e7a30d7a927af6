package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	require.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "JNL", cfg.Journal.IDPrefix)
	assert.Equal(t, 14, cfg.Journal.ReviewDueDays)
	assert.Equal(t, 2, cfg.Journal.MinReviewers)
	assert.Equal(t, MaxBulkRetry, cfg.DOI.BulkRetryLimit)
	assert.Equal(t, 10*time.Second, cfg.DOI.Timeout)
	assert.Len(t, cfg.Storage.AllowedMIMEs, 5)
}

func TestBulkRetryLimitIsCapped(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("DOI_BULK_RETRY_LIMIT", 500)
	v.Set("JOURNAL_ID_PREFIX", " ijsr ")
	v.Set("JOURNAL_PUBLIC_BASE_URL", "https://journal.example.org/")
	cfg := fromViper(v)

	assert.Equal(t, MaxBulkRetry, cfg.DOI.BulkRetryLimit)
	assert.Equal(t, "IJSR", cfg.Journal.IDPrefix)
	assert.Equal(t, "https://journal.example.org", cfg.Journal.PublicBaseURL)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
	assert.Equal(t, 2*time.Hour, parseDuration("2h", time.Minute))
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a, ,b "))
}
