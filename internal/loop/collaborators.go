package loop

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"
)

// Clipboard copies text to the system clipboard.
type Clipboard interface {
	CopyString(text string) error
}

// Mailer opens an e-mail draft.
type Mailer interface {
	ComposeEmail(subject, body string) error
}

// SystemClipboard uses the platform clipboard.
type SystemClipboard struct{}

func (SystemClipboard) CopyString(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("clipboard is not supported on this system")
	}
	return clipboard.WriteAll(text)
}

// SystemMailer opens a mailto: URL with the platform opener.
type SystemMailer struct {
	// Open overrides the opener, mainly for tests.
	Open func(target string) error
}

func (m SystemMailer) ComposeEmail(subject, body string) error {
	open := m.Open
	if open == nil {
		open = openURL
	}
	return open(MailtoURL(subject, body))
}

// MailtoURL builds a recipient-less mailto: URL. Spaces are encoded as %20
// because mail clients do not decode '+'.
func MailtoURL(subject, body string) string {
	q := "subject=" + mailtoEscape(subject) + "&body=" + mailtoEscape(body)
	return "mailto:?" + q
}

func mailtoEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func openURL(target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	default:
		cmd = exec.Command("xdg-open", target)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open %s: %w", strings.SplitN(target, ":", 2)[0], err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
