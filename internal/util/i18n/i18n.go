package i18n

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// T translates a key to a string. The first parameter identifies
// a message to translate. The second parameter is the default
// string to return if the key is not found.
func T(_ string, defaultValue string) string {
	return defaultValue
}

// Translator resolves panel strings for a single locale.
type Translator struct {
	tag      language.Tag
	messages map[string]string
	printer  *message.Printer
}

// Supported lists the locales with a built-in catalog, default first.
func Supported() []language.Tag {
	tags := []language.Tag{language.English}
	for tag := range bundled {
		if tag != language.English {
			tags = append(tags, tag)
		}
	}
	sort.Slice(tags[1:], func(i, j int) bool {
		return tags[1+i].String() < tags[1+j].String()
	})
	return tags
}

// New builds a Translator for the closest supported match of locale.
// Overrides replace individual messages of the matched locale.
func New(locale string, overrides map[string]string) (*Translator, error) {
	tag := language.English
	if strings.TrimSpace(locale) != "" {
		requested, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
		}
		supported := Supported()
		_, idx, _ := language.NewMatcher(supported).Match(requested)
		tag = supported[idx]
	}

	msgs := make(map[string]string, len(english))
	for k, v := range english {
		msgs[k] = v
	}
	for k, v := range bundled[tag] {
		msgs[k] = v
	}
	for k, v := range overrides {
		msgs[k] = v
	}

	builder := catalog.NewBuilder(catalog.Fallback(language.English))
	for k, v := range msgs {
		if err := builder.SetString(tag, k, v); err != nil {
			return nil, fmt.Errorf("failed to register message %q: %w", k, err)
		}
	}

	return &Translator{
		tag:      tag,
		messages: msgs,
		printer:  message.NewPrinter(tag, message.Catalog(builder)),
	}, nil
}

// Default returns the English translator.
func Default() *Translator {
	t, err := New("", nil)
	if err != nil {
		panic(err)
	}
	return t
}

// Language returns the matched locale.
func (t *Translator) Language() language.Tag {
	return t.tag
}

// Has reports whether key has a message.
func (t *Translator) Has(key string) bool {
	_, ok := t.messages[key]
	return ok
}

// T formats the message for key with args. Unknown keys are returned verbatim.
func (t *Translator) T(key string, args ...any) string {
	if !t.Has(key) {
		return key
	}
	return t.printer.Sprintf(key, args...)
}

// LoadOverrides reads a flat YAML mapping of message key to text.
func LoadOverrides(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read locale overrides: %w", err)
	}
	out := map[string]string{}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse locale overrides %s: %w", path, err)
	}
	return out, nil
}
