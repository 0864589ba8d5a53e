package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/farum-wellness/internal/adapters/identity"
	"github.com/PabloGalante/farum-wellness/internal/adapters/llm"
	ratestore "github.com/PabloGalante/farum-wellness/internal/adapters/ratelimit"
	memstore "github.com/PabloGalante/farum-wellness/internal/adapters/storage/memory"
	sqlstore "github.com/PabloGalante/farum-wellness/internal/adapters/storage/sql"
	"github.com/PabloGalante/farum-wellness/internal/config"
)

func TestBuildCompletionClient(t *testing.T) {
	ctx := context.Background()

	c, err := buildCompletionClient(ctx, config.LLMConfig{Provider: "mock"})
	require.NoError(t, err)
	assert.IsType(t, &llm.MockLLM{}, c)

	c, err = buildCompletionClient(ctx, config.LLMConfig{Provider: "openai", APIKey: "k", BaseURL: "http://localhost", Model: "m"})
	require.NoError(t, err)
	assert.IsType(t, &llm.OpenAIClient{}, c)

	_, err = buildCompletionClient(ctx, config.LLMConfig{Provider: "parrot"})
	require.Error(t, err)
}

func TestBuildStore(t *testing.T) {
	ctx := context.Background()
	var cleanup closers
	defer cleanup.close()

	s, err := buildStore(ctx, config.StorageConfig{Backend: "memory"}, &cleanup)
	require.NoError(t, err)
	assert.IsType(t, &memstore.Store{}, s)

	dsn := filepath.Join(t.TempDir(), "farum.db")
	s, err = buildStore(ctx, config.StorageConfig{Backend: "sqlite", DSN: dsn, AutoMigrate: true}, &cleanup)
	require.NoError(t, err)
	assert.IsType(t, &sqlstore.Store{}, s)
	assert.Len(t, cleanup, 1)

	_, err = s.LatestChat(ctx, "nobody")
	require.Error(t, err, "migrated schema answers queries")
}

func TestBuildRateStoreDefaultsToMemory(t *testing.T) {
	var cleanup closers
	s, err := buildRateStore(context.Background(), config.RateLimitConfig{Backend: "memory"}, &cleanup)
	require.NoError(t, err)
	assert.IsType(t, &ratestore.MemoryStore{}, s)
	assert.Empty(t, cleanup)
}

func TestBuildAuthenticator(t *testing.T) {
	withSecret := &config.Config{Auth: config.AuthConfig{JWTSecret: "s", Audience: "authenticated"}}
	assert.IsType(t, &identity.JWTVerifier{}, buildAuthenticator(withSecret))

	assert.IsType(t, identity.HeaderAuthenticator{}, buildAuthenticator(&config.Config{}))
}

func TestBuildAdmin(t *testing.T) {
	assert.IsType(t, &identity.AdminClient{}, buildAdmin(config.AuthConfig{AdminURL: "https://id.example.com", ServiceKey: "k"}))
	assert.IsType(t, identity.LocalAdmin{}, buildAdmin(config.AuthConfig{}))
}

func TestRootHasSubcommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "migrate"}, names)
}
