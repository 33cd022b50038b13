package panel

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanCanvas(t *testing.T, c *canvas, last string) string {
	t.Helper()
	out := c.zones.Scan(c.String())
	require.Eventually(t, func() bool { return !c.zones.Get(last).IsZero() }, time.Second, time.Millisecond)
	return out
}

func TestCanvasZones(t *testing.T) {
	zones := zone.New()
	t.Cleanup(zones.Close)

	c := newCanvas(zones)
	c.block("notice:1", "a long first line\nshort")
	c.write("ab ")
	c.writeRegion("button:x", "[ X ]")
	c.write(" ")
	c.writeRegion("button:y", "[ Y ]")
	c.newline()

	out := scanCanvas(t, c, "button:y")
	assert.Equal(t, "a long first line\nshort            \nab [ X ] [ Y ]", out)
	assert.Equal(t, 3, c.column("button:x"))

	press := func(x, y int) tea.MouseMsg {
		return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
	}

	id, ok := c.hit(press(16, 1))
	require.True(t, ok)
	assert.Equal(t, "notice:1", id)

	id, ok = c.hit(press(7, 2))
	require.True(t, ok)
	assert.Equal(t, "button:x", id)

	id, ok = c.hit(press(9, 2))
	require.True(t, ok)
	assert.Equal(t, "button:y", id)

	_, ok = c.hit(press(8, 2))
	assert.False(t, ok)

	x0, y0, x1, y1, ok := c.bounds("button:")
	require.True(t, ok)
	assert.Equal(t, []int{3, 2, 14, 3}, []int{x0, y0, x1, y1})
}

func TestPadBetween(t *testing.T) {
	assert.Equal(t, 5, padBetween("ab", "cde", 10))
	assert.Equal(t, 1, padBetween("abcdef", "ghijk", 10))
}
