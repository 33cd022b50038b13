package panel

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	zone "github.com/lrstanley/bubblezone"
	"github.com/mattn/go-runewidth"
)

// canvas accumulates view lines and marks clickable segments as zones. The
// zone manager learns their screen positions when the finished view is
// scanned.
type canvas struct {
	zones *zone.Manager
	lines []string
	cur   strings.Builder
	col   int

	// ids lists marked zones in render order; later ids sit on top.
	ids  []string
	cols map[string]int
}

func newCanvas(zones *zone.Manager) *canvas {
	return &canvas{zones: zones, cols: map[string]int{}}
}

func displayWidth(s string) int {
	return runewidth.StringWidth(ansi.Strip(s))
}

func (c *canvas) write(s string) {
	c.cur.WriteString(s)
	c.col += displayWidth(s)
}

func (c *canvas) track(id string) {
	c.ids = append(c.ids, id)
	c.cols[id] = c.col
}

// writeRegion writes s marked as zone id.
func (c *canvas) writeRegion(id, s string) {
	c.track(id)
	c.cur.WriteString(c.zones.Mark(id, s))
	c.col += displayWidth(s)
}

func (c *canvas) pad(n int) {
	if n > 0 {
		c.write(strings.Repeat(" ", n))
	}
}

func (c *canvas) newline() {
	c.lines = append(c.lines, c.cur.String())
	c.cur.Reset()
	c.col = 0
}

// block writes a multi-line string, one canvas line per input line. When id
// is set the lines are padded to a common width and marked as one
// rectangular zone.
func (c *canvas) block(id, s string) {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if id != "" {
		w := 0
		for _, line := range lines {
			w = max(w, displayWidth(line))
		}
		for i, line := range lines {
			lines[i] = line + strings.Repeat(" ", w-displayWidth(line))
		}
		c.track(id)
		lines = strings.Split(c.zones.Mark(id, strings.Join(lines, "\n")), "\n")
	}
	for _, line := range lines {
		c.write(line)
		c.newline()
	}
}

func (c *canvas) String() string {
	lines := c.lines
	if c.cur.Len() > 0 {
		lines = append(lines[:len(lines):len(lines)], c.cur.String())
	}
	return strings.Join(lines, "\n")
}

// column reports where id started on its line while rendering.
func (c *canvas) column(id string) int {
	return c.cols[id]
}

// hit returns the topmost zone under the pointer.
func (c *canvas) hit(msg tea.MouseMsg) (string, bool) {
	for i := len(c.ids) - 1; i >= 0; i-- {
		if c.zones.Get(c.ids[i]).InBounds(msg) {
			return c.ids[i], true
		}
	}
	return "", false
}

// bounds returns the half-open rectangle covering every zone whose id
// starts with one of prefixes.
func (c *canvas) bounds(prefixes ...string) (x0, y0, x1, y1 int, ok bool) {
	for _, id := range c.ids {
		matched := false
		for _, p := range prefixes {
			if strings.HasPrefix(id, p) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		z := c.zones.Get(id)
		if z.IsZero() {
			continue
		}
		if !ok {
			x0, y0, x1, y1, ok = z.StartX, z.StartY, z.EndX+1, z.EndY+1, true
			continue
		}
		x0 = min(x0, z.StartX)
		y0 = min(y0, z.StartY)
		x1 = max(x1, z.EndX+1)
		y1 = max(y1, z.EndY+1)
	}
	return x0, y0, x1, y1, ok
}

// padBetween returns the gap needed to push right against width.
func padBetween(left, right string, width int) int {
	gap := width - displayWidth(left) - displayWidth(right)
	if gap < 1 {
		return 1
	}
	return gap
}
