// internal/tui/prompt.go
//
// Line-based prompts for non-interactive terminals and piped input.

package tui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	invalidInputMsg     = "Invalid input. Please enter a number."
	invalidSelectionMsg = "Invalid selection. Please choose a valid number."
)

// ErrNoOptions is returned when Select is called with an empty option list.
var ErrNoOptions = errors.New("tui: nothing to select")

// Prompt reads answers one line at a time. It re-asks until the answer is
// usable; end of input or context cancellation are the only other ways out.
// A Prompt is not safe for concurrent use.
type Prompt struct {
	in  *bufio.Reader
	out io.Writer

	// pending holds a read still in flight after a cancelled question. It
	// is consumed by the next question so no input is lost or read twice.
	pending chan lineResult
}

type lineResult struct {
	line string
	err  error
}

// NewPrompt returns a prompt reading from in and writing to out.
func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{in: bufio.NewReader(in), out: out}
}

// Select prints options as a 1-indexed list, asks question until a valid
// number is entered and returns the zero-based index of the chosen entry.
func (p *Prompt) Select(ctx context.Context, title, question string, options []string) (int, error) {
	if len(options) == 0 {
		return -1, ErrNoOptions
	}
	if title != "" {
		fmt.Fprintf(p.out, "\n%s:\n", title)
	}
	for i, opt := range options {
		fmt.Fprintf(p.out, "%d. %s\n", i+1, opt)
	}
	if question == "" {
		question = "Select by number: "
	}
	for {
		if err := ctx.Err(); err != nil {
			return -1, err
		}
		line, err := p.readLine(ctx, question)
		if err != nil {
			return -1, err
		}
		n, convErr := strconv.Atoi(line)
		if convErr != nil {
			fmt.Fprintln(p.out, invalidInputMsg)
			continue
		}
		if n < 1 || n > len(options) {
			fmt.Fprintln(p.out, invalidSelectionMsg)
			continue
		}
		return n - 1, nil
	}
}

// Ask prints question and returns the first non-blank answer.
func (p *Prompt) Ask(ctx context.Context, question string) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		line, err := p.readLine(ctx, question)
		if err != nil {
			return "", err
		}
		if line != "" {
			return line, nil
		}
	}
}

// readLine returns the trimmed next line. A final line without a newline is
// still returned; io.ErrUnexpectedEOF is reported only once nothing is left.
// The blocking read runs in its own goroutine so ctx can interrupt the wait.
func (p *Prompt) readLine(ctx context.Context, question string) (string, error) {
	fmt.Fprint(p.out, question)
	if p.pending == nil {
		ch := make(chan lineResult, 1)
		go func() {
			line, err := p.in.ReadString('\n')
			ch <- lineResult{line: line, err: err}
		}()
		p.pending = ch
	}
	var res lineResult
	select {
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return "", ctx.Err()
	case res = <-p.pending:
		p.pending = nil
	}
	line, err := strings.TrimSpace(res.line), res.err
	if err != nil {
		if errors.Is(err, io.EOF) {
			if line != "" {
				return line, nil
			}
			fmt.Fprintln(p.out)
			return "", io.ErrUnexpectedEOF
		}
		return "", fmt.Errorf("tui: read answer: %w", err)
	}
	return line, nil
}
