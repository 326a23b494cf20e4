package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "lenderledger dev (commit none)\n", out)
}

func TestAccrueOnMemoryStore(t *testing.T) {
	t.Setenv("STORE", "memory")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("ACCRUAL_TIMEZONE", "America/Sao_Paulo")

	out, err := run(t, "accrue", "--as-of", "2024-02-11", "--log-level", "error")
	require.NoError(t, err)
	assert.Equal(t, "accrued as of 2024-02-11: 0 updated, 0 changed, 0 skipped\n", out)
}

func TestAccrueRejectsMalformedDate(t *testing.T) {
	t.Setenv("STORE", "memory")
	t.Setenv("REDIS_ADDR", "")

	_, err := run(t, "accrue", "--as-of", "11/02/2024", "--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM-DD")
}

func TestMigrateNeedsPostgres(t *testing.T) {
	t.Setenv("STORE", "memory")

	_, err := run(t, "migrate", "version", "--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE=postgres")
}
