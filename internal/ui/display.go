package ui

import (
	"fmt"
	"io"
)

// Display renders a generated image given its local path
type Display interface {
	Show(path string) error
}

// TextDisplay reports the stored file path on a writer
type TextDisplay struct {
	w io.Writer
}

// NewTextDisplay creates a display writing to w
func NewTextDisplay(w io.Writer) *TextDisplay {
	return &TextDisplay{w: w}
}

func (d *TextDisplay) Show(path string) error {
	_, err := fmt.Fprintf(d.w, "Generated image stored in: %s\n", path)
	return err
}
