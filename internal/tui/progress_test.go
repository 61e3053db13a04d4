package tui

import (
	"bytes"
	"strings"
	"testing"
)

func TestProgressPassThroughWhenNotLive(t *testing.T) {
	var out bytes.Buffer
	p := NewProgress(&out, "Processing Signups", 2, false)
	p.Printf("Failed: %s - %d - %s", "a@example.com", 400, "bad")
	p.Increment()
	p.Increment()
	p.Increment()
	p.Finish()

	if p.Done() != 2 {
		t.Fatalf("done must cap at total, got %d", p.Done())
	}
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected message and final bar, got %q", out.String())
	}
	if lines[0] != "Failed: a@example.com - 400 - bad" {
		t.Fatalf("unexpected message line %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "Processing Signups") || !strings.HasSuffix(lines[1], "2/2") {
		t.Fatalf("unexpected bar line %q", lines[1])
	}
	if strings.Contains(out.String(), clearLine) {
		t.Fatalf("non-live output must not contain terminal control codes")
	}
}

func TestProgressLiveRedrawsAroundMessages(t *testing.T) {
	var out bytes.Buffer
	p := NewProgress(&out, "Processing Signups", 1, true)
	p.Increment()
	p.Printf("Signup Completed")
	p.Finish()

	text := out.String()
	if !strings.Contains(text, clearLine+"Signup Completed\n") {
		t.Fatalf("message must clear the bar first: %q", text)
	}
	if !strings.HasSuffix(text, "1/1\n") {
		t.Fatalf("final bar must end the output: %q", text)
	}
}

func TestProgressZeroTotal(t *testing.T) {
	var out bytes.Buffer
	p := NewProgress(&out, "Processing Signups", 0, false)
	p.Finish()
	if !strings.HasSuffix(strings.TrimSpace(out.String()), "0/0") {
		t.Fatalf("unexpected output %q", out.String())
	}
}
