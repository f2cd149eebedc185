package gxpacket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortRegistry(t *testing.T) {
	r := NewPortRegistry()
	a, b := &struct{ int }{1}, &struct{ int }{2}
	require.NoError(t, r.claim("/dev/ttyS0", a))
	require.NoError(t, r.claim("/dev/ttyS0", a))
	assert.True(t, r.InUse("/dev/ttyS0"))
	assert.True(t, r.InUse("/dev/../dev/ttyS0"))
	assert.ErrorIs(t, r.claim("/dev/ttyS0", b), ErrPortInUse)
	require.NoError(t, r.claim("/dev/ttyS1", b))

	r.release("/dev/ttyS0", b)
	assert.True(t, r.InUse("/dev/ttyS0"))
	r.release("/dev/ttyS0", a)
	assert.False(t, r.InUse("/dev/ttyS0"))
	require.NoError(t, r.claim("/dev/ttyS0", b))
}
