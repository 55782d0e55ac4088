package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteTableAlignsColumns(t *testing.T) {
	var out bytes.Buffer
	err := writeTable(&out, []string{"JOB", "WITH"}, [][]string{
		{"10", "alice"},
		{"11000", "b"},
	})
	require.NoError(t, err)
	require.Equal(t, "JOB    WITH\n10     alice\n11000  b\n", out.String())
}

func TestWriteTableEmpty(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeTable(&out, nil, nil))
	require.Empty(t, out.String())
}

func TestStripANSI(t *testing.T) {
	require.Equal(t, "plain", stripANSI("plain"))
	require.Equal(t, "colored", stripANSI("\x1b[31mcolored\x1b[0m"))
}
