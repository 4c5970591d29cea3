package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mixhub/apiserver/config"
)

func TestImageKey(t *testing.T) {
	key := ImageKey("mojito.png")
	assert.True(t, strings.HasPrefix(key, "drinks/"))
	assert.True(t, strings.HasSuffix(key, "-mojito.png"))

	// Path components are stripped.
	key = ImageKey("../../etc/passwd")
	assert.True(t, strings.HasSuffix(key, "-passwd"))
	assert.NotContains(t, key, "..")

	// Empty names still yield a usable key.
	key = ImageKey("")
	assert.True(t, strings.HasSuffix(key, "-image"))

	// Keys are unique across uploads of the same filename.
	assert.NotEqual(t, ImageKey("mojito.png"), ImageKey("mojito.png"))
}

func TestNewFromConfigDisabled(t *testing.T) {
	storage, err := NewFromConfig(context.Background(), config.StorageConfig{Backend: ""})
	require.NoError(t, err)
	assert.Nil(t, storage)
}

func TestNewFromConfigUnknownBackend(t *testing.T) {
	_, err := NewFromConfig(context.Background(), config.StorageConfig{Backend: "s3"})
	assert.Error(t, err)
}
