package tui

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

var errNoClipboard = errors.New("no clipboard tool: install wl-clipboard, xclip or xsel")

// copyToClipboard copies profile text to the system clipboard.
func copyToClipboard(text string) error {
	if clipboard.Unsupported {
		return errNoClipboard
	}

	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard: %w", err)
	}

	return nil
}
