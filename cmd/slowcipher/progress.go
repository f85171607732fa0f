package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/slowcipher/slowcipher-go"
)

// progressPrinter renders derivation progress on a writer. On a terminal
// the line is redrawn in place; otherwise only checkpoint and final samples
// are written, one per line.
type progressPrinter struct {
	mu    sync.Mutex
	w     io.Writer
	tty   bool
	quiet bool
	open  bool
}

func newProgressPrinter(w io.Writer, quiet bool) *progressPrinter {
	return &progressPrinter{w: w, tty: isTerminal(w), quiet: quiet}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *progressPrinter) print(pr slowcipher.Progress) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	line := formatProgress(pr)
	switch {
	case p.tty:
		fmt.Fprintf(p.w, "\r\033[K%s", line)
		p.open = !pr.Final
		if pr.Final {
			fmt.Fprintln(p.w)
		}
	case pr.Final || pr.Checkpoint:
		fmt.Fprintln(p.w, line)
	}
}

// finish terminates a redrawn line left open by an interrupted derivation.
func (p *progressPrinter) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.open {
		fmt.Fprintln(p.w)
		p.open = false
	}
}

func formatProgress(pr slowcipher.Progress) string {
	return fmt.Sprintf("round %s/%s (%.1f%%) %s rounds/s, %s left",
		humanize.Comma(int64(pr.Index)),
		humanize.Comma(int64(pr.StepCount)),
		pr.Fraction()*100,
		humanize.CommafWithDigits(pr.IterationsPerSecond, 1),
		formatRemaining(pr.RemainingTime),
	)
}

func formatRemaining(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}
