package progress

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
)

// Printer renders samples as a single status line.
type Printer struct {
	w      io.Writer
	label  string
	redraw bool
}

// NewPrinter returns a Printer writing to w. With redraw set the line is
// rewritten in place with a carriage return, which only makes sense on a
// terminal; otherwise every sample gets its own line.
func NewPrinter(w io.Writer, label string, redraw bool) *Printer {
	return &Printer{w: w, label: label, redraw: redraw}
}

// Observe implements Observer.
func (p *Printer) Observe(s Sample) {
	line := Format(p.label, s)
	switch {
	case !p.redraw:
		fmt.Fprintln(p.w, line)
	case s.Final:
		fmt.Fprintf(p.w, "\r%s\x1b[K\n", line)
	default:
		fmt.Fprintf(p.w, "\r%s\x1b[K", line)
	}
}

// Format renders s as "[Label] 12 MiB / 40 MiB (30.0%) 5.1 MiB/s", or
// without the total and percentage when the total is unknown.
func Format(label string, s Sample) string {
	var b strings.Builder
	if label != "" {
		fmt.Fprintf(&b, "[%s] ", label)
	}
	b.WriteString(humanize.IBytes(uint64(s.Bytes)))
	if frac, ok := s.Fraction(); ok {
		fmt.Fprintf(&b, " / %s (%.1f%%)", humanize.IBytes(uint64(s.Total)), frac*100)
	}
	fmt.Fprintf(&b, " %s/s", humanize.IBytes(uint64(s.Rate())))
	return b.String()
}
