// internal/tui/progress.go
//
// Progress renders a one-line bar while rows are processed. On a terminal the
// bar is redrawn in place and any message printed through Printf lands above
// it; elsewhere messages pass straight through and the bar is printed once
// when the run finishes.

package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
)

const clearLine = "\r\x1b[2K"

// Progress tracks completed steps out of a known total.
type Progress struct {
	out   io.Writer
	label string
	total int
	done  int
	live  bool
	drawn bool
	bar   progress.Model
}

// NewProgress creates a bar for total steps. live enables in-place redraws.
func NewProgress(out io.Writer, label string, total int, live bool) *Progress {
	return &Progress{
		out:   out,
		label: label,
		total: total,
		live:  live,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
	}
}

// Increment marks one more step complete.
func (p *Progress) Increment() {
	if p.done < p.total {
		p.done++
	}
	if p.live {
		p.draw()
	}
}

// Printf prints a message line without tearing the bar.
func (p *Progress) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	if p.live && p.drawn {
		fmt.Fprint(p.out, clearLine)
		fmt.Fprint(p.out, msg)
		p.draw()
		return
	}
	fmt.Fprint(p.out, msg)
}

// Finish leaves the final bar state on its own line.
func (p *Progress) Finish() {
	if !p.live {
		fmt.Fprintln(p.out, p.line())
		return
	}
	p.draw()
	fmt.Fprintln(p.out)
	p.drawn = false
}

// Done reports how many steps have completed.
func (p *Progress) Done() int {
	return p.done
}

func (p *Progress) draw() {
	fmt.Fprint(p.out, clearLine+p.line())
	p.drawn = true
}

func (p *Progress) line() string {
	percent := 0.0
	if p.total > 0 {
		percent = float64(p.done) / float64(p.total)
	}
	return fmt.Sprintf("%s %s %d/%d", p.label, p.bar.ViewAs(percent), p.done, p.total)
}
