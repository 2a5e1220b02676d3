package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	id, err := parseID("12", "lead")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	for _, arg := range []string{"12abc", "abc", "0", "-3", "", " 7", "1.5"} {
		t.Run(arg, func(t *testing.T) {
			_, err := parseID(arg, "lead")
			assert.Error(t, err)
		})
	}
}
