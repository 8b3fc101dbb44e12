package view

import (
	"github.com/atotto/clipboard"

	"github.com/kcaldas/devconsole/pkg/types"
)

// Copier places text on a clipboard
type Copier interface {
	Copy(text string) error
}

// Clipboard is the system clipboard
type Clipboard struct{}

func NewClipboard() *Clipboard {
	return &Clipboard{}
}

func (c *Clipboard) Copy(text string) error {
	return clipboard.WriteAll(text)
}

// IsAvailable reports whether a clipboard utility is installed
func (c *Clipboard) IsAvailable() bool {
	return !clipboard.Unsupported
}

// CopyEntry copies the text of e using c
func CopyEntry(c Copier, e types.Entry) error {
	return c.Copy(CopyText(e))
}
