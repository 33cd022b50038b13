package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagEnumRejectsUnknownValues(t *testing.T) {
	e := NewEnum([]string{"text", "json"}, "text")

	require.NoError(t, e.Set("json"))
	assert.Equal(t, "json", e.String())

	err := e.Set("xml")
	require.Error(t, err)
	assert.Equal(t, "json", e.String())
	assert.Equal(t, "string", e.Type())
}
