package uuid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	before := time.Now().Add(-time.Second)
	u := New()
	assert.True(t, IsUUIDv7(u))
	assert.True(t, Timestamp(u).After(before))

	parsed, err := Parse(u.String())
	require.NoError(t, err)
	assert.Equal(t, u, parsed)

	_, err = Parse("not-a-uuid")
	assert.Error(t, err)
}
