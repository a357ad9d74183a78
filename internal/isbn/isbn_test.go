package isbn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValid(t *testing.T) {
	cases := map[string]bool{
		"0132856204":        true,
		"0-13-285620-4":     true,
		"9780132856201":     true,
		"978-0-13-285620-1": true,
		"080442957X":        true,
		"080442957x":        true,
		"0132856205":        false,
		"9780132856202":     false,
		"1234567890123":     false,
		"Kurose":            false,
		"":                  false,
	}
	for in, want := range cases {
		assert.Equal(t, want, Valid(in), in)
	}
}

func TestConversions(t *testing.T) {
	t.Run("10 to 13", func(t *testing.T) {
		got, err := To13("0-13-285620-4")
		require.NoError(t, err)
		assert.Equal(t, "9780132856201", got)
	})

	t.Run("13 to 10", func(t *testing.T) {
		got, err := To10("9780804429573")
		require.NoError(t, err)
		assert.Equal(t, "080442957X", got)
	})

	t.Run("979 has no isbn-10", func(t *testing.T) {
		_, err := To10("9791032305690")
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := To13("not an isbn")
		assert.ErrorIs(t, err, ErrInvalid)
	})
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, "080442957X", Canonical("0 8044-2957-x"))
}
