package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rika-labs/rikadeploy/internal/config"
)

func TestRootCmd_Version(t *testing.T) {
	config.SetBuildFlags("1.2.3", "abc123", "2026-01-01")
	t.Cleanup(func() { config.SetBuildFlags("dev", "unknown", "unknown") })

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "rikadeploy version 1.2.3 (commit abc123, built 2026-01-01)\n", out.String())
}

func TestRootCmd_Commands(t *testing.T) {
	cmd := NewRootCmd()

	for _, name := range []string{"deploy", "verify", "status", "reset", "networks", "version"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}

	deploy, _, err := cmd.Find([]string{"deploy"})
	require.NoError(t, err)
	for _, flag := range []string{"fresh", "strict-verify", "skip-verify", "yes", "manifest"} {
		assert.NotNil(t, deploy.Flags().Lookup(flag), flag)
	}
	assert.NotNil(t, cmd.PersistentFlags().ShorthandLookup("n"))
}

func TestRootCmd_VerifyRejectsUnknownArtifact(t *testing.T) {
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"verify", "vault"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid argument "vault"`)
}
