package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/basel-ax/dallegen/internal/domain"
)

const promptLine = "prompt> "

// Console reads prompts line by line and feeds them to a generator
type Console struct {
	in        io.Reader
	out       io.Writer
	generator domain.ImageGenerator
	display   Display
	trigger   *Trigger
}

// NewConsole creates a console front end. A nil display prints file paths to out.
func NewConsole(in io.Reader, out io.Writer, generator domain.ImageGenerator, display Display) *Console {
	if display == nil {
		display = NewTextDisplay(out)
	}
	return &Console{
		in:        in,
		out:       out,
		generator: generator,
		display:   display,
		trigger:   NewTrigger(),
	}
}

// Trigger exposes the console's trigger control
func (c *Console) Trigger() *Trigger {
	return c.trigger
}

// Run processes prompts until EOF or until ctx is cancelled.
// Per-prompt failures are reported and do not stop the loop.
func (c *Console) Run(ctx context.Context) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		sc := bufio.NewScanner(c.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	fmt.Fprint(c.out, promptLine)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if strings.TrimSpace(line) != "" {
				c.Submit(ctx, line)
			}
			fmt.Fprint(c.out, promptLine)
		}
	}
}

// Submit fires the trigger for one prompt and reports the outcome.
// It returns the error that was shown to the user, if any.
func (c *Console) Submit(ctx context.Context, prompt string) error {
	err := c.trigger.Run(func() error {
		result, err := c.generator.Generate(ctx, prompt)
		if err != nil {
			return err
		}
		return c.display.Show(result.FilePath)
	})
	if err != nil {
		fmt.Fprintf(c.out, "Error: %s\n", describe(err))
	}
	return err
}

// describe turns an error into a message for the user
func describe(err error) string {
	switch {
	case domain.IsKind(err, domain.KindValidation):
		return "invalid prompt: " + err.Error()
	case domain.IsKind(err, domain.KindGeneration):
		return "the image service rejected the request: " + err.Error()
	case domain.IsKind(err, domain.KindDownload):
		return "the image could not be downloaded: " + err.Error()
	case domain.IsKind(err, domain.KindIO):
		return "the image could not be saved: " + err.Error()
	default:
		return err.Error()
	}
}
