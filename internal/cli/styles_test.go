package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatters(t *testing.T) {
	tests := []struct {
		format func(string) string
		name   string
		icon   string
	}{
		{name: "success", format: FormatSuccess, icon: SuccessIcon},
		{name: "error", format: FormatError, icon: ErrorIcon},
		{name: "warning", format: FormatWarning, icon: WarningIcon},
		{name: "title", format: FormatTitle, icon: ChartIcon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.format("hello")
			assert.Contains(t, out, tt.icon)
			assert.Contains(t, out, "hello")
		})
	}
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	table, err := NewTable(&buf, []string{"ID", "Name"}, []int{4, 10})
	require.NoError(t, err)

	require.NoError(t, table.Row("1", "Alice"))
	require.NoError(t, table.Row("22", "Bob"))
	require.NoError(t, table.Flush())

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "ID")
	assert.Contains(t, lines[1], strings.Repeat("─", 10))
	assert.True(t, strings.HasPrefix(lines[2], "1 "))
	assert.Contains(t, lines[3], "Bob")
}
