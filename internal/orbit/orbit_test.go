package orbit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodicStub_AccessWindows_ReturnsTwoOrderedPasses(t *testing.T) {
	p := PeriodicStub{Period: 100, Duration: 10}

	windows, err := p.AccessWindows(0, 90, 0)
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.Less(t, windows[0].Enter, windows[1].Enter)
	assert.Equal(t, windows[0].Enter+p.Period, windows[1].Enter)
	assert.Equal(t, windows[0].Enter+p.Duration, windows[0].Exit)
}

func TestPeriodicStub_AccessWindows_FirstWindowIsNotBeforeTFrom(t *testing.T) {
	p := PeriodicStub{Period: 100, Duration: 10}

	windows, err := p.AccessWindows(0, 0, 250)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, windows[0].Enter, 250.0)
}

func TestPeriodicStub_AccessWindows_DefaultsWhenUnset(t *testing.T) {
	p := PeriodicStub{}
	windows, err := p.AccessWindows(0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 60.0, windows[0].Exit-windows[0].Enter)
}
