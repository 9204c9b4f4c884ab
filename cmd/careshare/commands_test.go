package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"careshare/internal/auth"
	"careshare/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTokenIssue_SignsVerifiableToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("JWT_ISSUER", "careshare")

	out, err := run(t, "token", "issue", "--subject", "voice-agent", "--role", "agent", "--ttl", "1h")
	require.NoError(t, err)

	m, err := auth.NewManager(config.AuthConfig{JWTSecret: "cli-secret", JWTIssuer: "careshare"})
	require.NoError(t, err)
	claims, err := m.Verify(strings.TrimSpace(out), time.Now())
	require.NoError(t, err)
	assert.Equal(t, "voice-agent", claims.Subject)
	assert.Equal(t, "agent", claims.Role)
}

func TestTokenIssue_RejectsBadInput(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")

	_, err := run(t, "token", "issue", "--subject", "x", "--role", "owner")
	assert.ErrorContains(t, err, "unknown role")

	_, err = run(t, "token", "issue")
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "")
	_, err = run(t, "token", "issue", "--subject", "x")
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestZipsImport_RequiresFile(t *testing.T) {
	_, err := run(t, "zips", "import")
	assert.Error(t, err)

	_, err = run(t, "zips", "import", "--file", "/does/not/exist.csv")
	assert.Error(t, err)
}
