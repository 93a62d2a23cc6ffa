package main

import (
	"flag"
	"io"
	"testing"

	"github.com/SscSPs/points_ledger/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs([]string{"3", "14"})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 14}, ids)

	_, err = parseIDs(nil)
	assert.Error(t, err)
	_, err = parseIDs([]string{"0"})
	assert.Error(t, err)
	_, err = parseIDs([]string{"x"})
	assert.Error(t, err)
}

func TestOwnerFlags(t *testing.T) {
	var o ownerFlags
	f := flag.NewFlagSet("test", flag.ContinueOnError)
	o.register(f)
	require.NoError(t, f.Parse([]string{"-kind", "market_pool", "-market", "4", "-outcome", "2"}))
	assert.Equal(t, domain.MarketPoolOwner(4, 2), o.owner())
}

func TestVolumeFlags(t *testing.T) {
	var c volumeCmd
	f := flag.NewFlagSet("test", flag.ContinueOnError)
	c.SetFlags(f)
	require.NoError(t, f.Parse([]string{"-market", "5", "-start", "2024-03-01T10:00:00Z"}))
	assert.Equal(t, int64(5), c.market)
	require.NotNil(t, c.start.t)
	assert.Equal(t, 10, c.start.t.Hour())
	assert.Nil(t, c.end.t)
	assert.Equal(t, "2024-03-01T10:00:00Z", c.start.String())

	f = flag.NewFlagSet("test", flag.ContinueOnError)
	f.SetOutput(io.Discard)
	c.SetFlags(f)
	assert.Error(t, f.Parse([]string{"-end", "tomorrow"}))
}

func TestCommandNamesAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range commands {
		assert.False(t, seen[c.Name()], c.Name())
		seen[c.Name()] = true
	}
}
