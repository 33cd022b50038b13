package render

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

// Options controls markdown rendering behaviour.
type Options struct {
	NoColor bool
	Width   int
}

type rendererKey struct {
	noColor bool
	width   int
}

var (
	renderersMu sync.Mutex
	renderers   = map[rendererKey]*glamour.TermRenderer{}
)

// Markdown renders markdown for the terminal. On any renderer failure the
// source text is returned unchanged.
func Markdown(markdown string, opts Options) string {
	r, err := rendererFor(opts)
	if err != nil {
		return markdown
	}
	out, err := r.Render(markdown)
	if err != nil {
		return markdown
	}
	return normalizeSpacing(out)
}

// Link formats a markdown link.
func Link(text, target string) string {
	if strings.TrimSpace(target) == "" {
		return text
	}
	return "[" + text + "](" + target + ")"
}

func normalizeSpacing(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return trimmed
	}
	lines := strings.Split(trimmed, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
		if i == 0 {
			lines[i] = strings.TrimLeft(lines[i], " ")
		}
	}
	return strings.Join(lines, "\n")
}

// rendererFor caches one renderer per option set; glamour renderers are
// expensive to build and the panel re-renders on every frame.
func rendererFor(opts Options) (*glamour.TermRenderer, error) {
	key := rendererKey{noColor: opts.NoColor, width: max(opts.Width, 0)}

	renderersMu.Lock()
	defer renderersMu.Unlock()
	if r, ok := renderers[key]; ok {
		return r, nil
	}

	options := []glamour.TermRendererOption{}
	if opts.NoColor {
		options = append(options,
			glamour.WithStandardStyle("notty"),
			glamour.WithColorProfile(termenv.Ascii),
		)
	} else {
		options = append(options,
			glamour.WithAutoStyle(),
			glamour.WithColorProfile(termenv.TrueColor),
		)
	}
	if key.width > 0 {
		options = append(options, glamour.WithWordWrap(key.width))
	}
	r, err := glamour.NewTermRenderer(options...)
	if err != nil {
		return nil, err
	}
	renderers[key] = r
	return r, nil
}
