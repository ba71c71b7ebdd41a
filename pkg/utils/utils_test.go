package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUtils_NewULIDFromTimestamp(t *testing.T) {
	u := New()
	now := time.Now()

	first, err := u.NewULIDFromTimestamp(now)
	require.NoError(t, err)
	second, err := u.NewULIDFromTimestamp(now)
	require.NoError(t, err)

	assert.Len(t, first, 26)
	assert.Less(t, first, second)
}

func TestUtils_NewSessionID(t *testing.T) {
	id, err := New().NewSessionID()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "as_"))
}
