package slug

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMake(t *testing.T) {
	cases := map[string]string{
		"Airwaves FM":          "airwaves-fm",
		"AC/DC Night":          "ac-dc-night",
		"  Late   Night Talk ": "late-night-talk",
		"DJ Kemi Adé":          "dj-kemi-ade",
		"Rádio São Paulo":      "radio-sao-paulo",
		"100% Hits_Only":       "100-hits-only",
		"?!":                   "",
		"rock-3":               "rock-3",
	}
	for in, want := range cases {
		assert.Equal(t, want, Make(in), in)
	}
}

func TestMakeIsURLSafeAndBounded(t *testing.T) {
	out := Make(strings.Repeat("ab ", 80))
	assert.LessOrEqual(t, len(out), MaxLength)
	assert.False(t, strings.HasSuffix(out, "-"))
	for _, r := range out {
		assert.True(t, (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-', "rune %q", r)
	}
	assert.Equal(t, out, Make(out))
}

func TestUniqueSkipsTakenSuffixes(t *testing.T) {
	taken := map[string]bool{"rock": true, "rock-2": true, "rock-3": true}
	exists := func(_ context.Context, s string) (bool, error) { return taken[s], nil }

	got, err := Unique(context.Background(), "rock", exists)
	require.NoError(t, err)
	assert.Equal(t, "rock-4", got)

	got, err = Unique(context.Background(), "jazz", exists)
	require.NoError(t, err)
	assert.Equal(t, "jazz", got)
}

func TestUniqueWithGap(t *testing.T) {
	taken := map[string]bool{"rock": true, "rock-3": true}
	got, err := Unique(context.Background(), "rock", func(_ context.Context, s string) (bool, error) { return taken[s], nil })
	require.NoError(t, err)
	assert.Equal(t, "rock-2", got)
}

func TestUniquePropagatesErrors(t *testing.T) {
	_, err := Unique(context.Background(), "rock", func(context.Context, string) (bool, error) {
		return false, errors.New("db down")
	})
	require.Error(t, err)

	_, err = Unique(context.Background(), "rock", func(context.Context, string) (bool, error) { return true, nil })
	require.Error(t, err)
}
