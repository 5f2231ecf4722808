package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCounters_Count(t *testing.T) {
	var c RunCounters
	c.Count("fundado")
	c.Count("fundado")
	c.Count("desconocido")

	assert.Equal(t, 3, c.Processed)
	assert.Equal(t, map[string]int{"fundado": 2, "desconocido": 1}, c.Labels)
}

func TestRunCounters_ValueScan(t *testing.T) {
	in := RunCounters{Total: 5, Processed: 3, Skipped: 1, Failed: 1, Labels: map[string]int{"infundado": 3}}
	v, err := in.Value()
	require.NoError(t, err)

	var out RunCounters
	require.NoError(t, out.Scan(v))
	assert.Equal(t, in, out)

	require.NoError(t, out.Scan(nil))
	assert.Equal(t, RunCounters{}, out)

	assert.Error(t, out.Scan(42))
}
