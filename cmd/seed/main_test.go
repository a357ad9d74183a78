package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadQueries(t *testing.T) {
	in := strings.NewReader("# classics\nauthor:%cervantes%\n\n  Kurose  \n#skip\n9780132856201\n")
	got, err := readQueries(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"author:%cervantes%", "Kurose", "9780132856201"}, got)
}
