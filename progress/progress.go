package progress

import (
	"fmt"

	"github.com/pterm/pterm"
)

// Sink receives per-unit updates from a conversion driver. It is
// write-only from the driver's point of view and has no effect on results.
type Sink interface {
	// Step marks one unit as processed; label names it for display.
	Step(label string)
	// Fail reports a per-unit error without interrupting the display.
	Fail(err error)
	Stop()
}

// Discard is a Sink that ignores every update.
var Discard Sink = discard{}

type discard struct{}

func (discard) Step(string) {}
func (discard) Fail(error)  {}
func (discard) Stop()       {}

// New returns a progress bar when total is known, a spinner when total is
// negative, and Discard when disabled.
func New(total int, title string, enabled bool) Sink {
	if !enabled {
		return Discard
	}
	if total < 0 {
		return newSpinner(title)
	}
	return newBar(total, title)
}

// Bar manages a progress bar for a run with a known number of units.
type Bar struct {
	pb    *pterm.ProgressbarPrinter
	title string
}

func newBar(total int, title string) Sink {
	pb, err := pterm.DefaultProgressbar.
		WithTotal(total).
		WithTitle(title).
		WithRemoveWhenDone(true).
		Start()
	if err != nil {
		return Discard
	}
	return &Bar{pb: pb, title: title}
}

func (b *Bar) Step(label string) {
	if label != "" {
		b.pb.UpdateTitle(b.title + ": " + truncate(label, 40))
	}
	b.pb.Increment()
}

func (b *Bar) Fail(err error) {
	if err != nil {
		pterm.Error.Printfln("%v", err)
	}
}

func (b *Bar) Stop() {
	_, _ = b.pb.Stop()
}

// Spinner is used when the number of units is not known up front.
type Spinner struct {
	sp    *pterm.SpinnerPrinter
	title string
	done  int
}

func newSpinner(title string) Sink {
	sp, err := pterm.DefaultSpinner.WithRemoveWhenDone(true).Start(title)
	if err != nil {
		return Discard
	}
	return &Spinner{sp: sp, title: title}
}

func (s *Spinner) Step(label string) {
	s.done++
	text := fmt.Sprintf("%s: %d processed", s.title, s.done)
	if label != "" {
		text += " (" + truncate(label, 40) + ")"
	}
	s.sp.UpdateText(text)
}

func (s *Spinner) Fail(err error) {
	if err != nil {
		pterm.Error.Printfln("%v", err)
	}
}

func (s *Spinner) Stop() {
	_ = s.sp.Stop()
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}
