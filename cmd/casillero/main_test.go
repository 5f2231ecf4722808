package main

import (
	"bytes"
	"errors"
	"testing"

	"casillero-backend/models"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"classify", "outcome"},
		{"classify", "materia"},
		{"run"},
		{"ingest"},
		{"route"},
		{"seed-index"},
		{"export-index"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}

	outcome, _, err := rootCmd.Find([]string{"classify", "outcome"})
	require.NoError(t, err)
	assert.NotNil(t, outcome.Flags().Lookup("id"))
	assert.NotNil(t, outcome.Flags().Lookup("persist"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}

func TestPrintRun(t *testing.T) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	run := &models.Run{
		Pass:     models.PassOutcome,
		Status:   models.RunStatusFailed,
		Counters: models.RunCounters{Total: 2, Processed: 1},
	}
	passErr := errors.New("store unavailable")

	err := printRun(cmd, func() (*models.Run, error) { return run, passErr })
	assert.ErrorIs(t, err, passErr)
	assert.Contains(t, out.String(), `"status": "failed"`)
	assert.Contains(t, out.String(), `"total": 2`)

	out.Reset()
	err = printRun(cmd, func() (*models.Run, error) { return nil, passErr })
	assert.ErrorIs(t, err, passErr)
	assert.Empty(t, out.String())
}
