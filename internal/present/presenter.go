package present

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/i474232898/weather-tracker/internal/store"
	"github.com/i474232898/weather-tracker/internal/weather"
)

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Presenter draws the live session chart and the per-iteration console block.
// In live mode each frame replaces the previous one in place.
type Presenter struct {
	out    io.Writer
	chart  Chart
	styles Styles
	live   bool

	lastFrame string
	lastLines int
	finalized bool
}

// New returns a presenter writing to out. live enables in-place redraws and
// should only be set when out is a terminal.
func New(out io.Writer, live bool) *Presenter {
	return &Presenter{
		out:    out,
		chart:  DefaultChart(),
		styles: NewStyles(out),
		live:   live,
	}
}

// Banner prints the session header after the city is resolved.
func (p *Presenter) Banner(place weather.Place, interval time.Duration) {
	fmt.Fprintf(p.out, "\n%s %s | Fetch interval: %s\n",
		p.styles.Label.Render("City:"), p.styles.Title.Render(place.Name), interval)
	fmt.Fprintln(p.out, "Press Ctrl + C to stop logging anytime.")
	fmt.Fprintln(p.out)
}

// Render redraws the chart of the whole session series and prints the
// console block for the latest reading.
func (p *Presenter) Render(snap store.SeriesSnapshot, latest weather.Reading, iteration int) error {
	if p.finalized {
		return nil
	}

	frame := p.frame(snap, latest, iteration)
	if p.live && p.lastLines > 0 {
		// Move to the start of the previous frame and clear to the end of screen.
		if _, err := fmt.Fprintf(p.out, "\x1b[%dF\x1b[J", p.lastLines); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(p.out, frame); err != nil {
		return err
	}

	p.lastFrame = frame
	p.lastLines = strings.Count(frame, "\n")
	return nil
}

// Warn prints a one-line warning for a skipped iteration. The next frame is
// drawn below it rather than over it.
func (p *Presenter) Warn(iteration int, msg string) {
	if p.finalized {
		return
	}
	fmt.Fprintf(p.out, "%s (iteration %d)\n", p.styles.Warn.Render(msg), iteration)
	p.lastLines = 0
}

// Break makes the next frame start below the cursor, leaving anything
// printed since the last frame on screen.
func (p *Presenter) Break() {
	p.lastLines = 0
}

// Finalize stops live updates and leaves the last frame on screen.
func (p *Presenter) Finalize() {
	if p.finalized {
		return
	}
	p.finalized = true
	p.lastLines = 0
	fmt.Fprintln(p.out)
}

// Stopped prints the interrupt notice.
func (p *Presenter) Stopped() {
	fmt.Fprintf(p.out, "\n%s\n", p.styles.Warn.Render("Logging stopped by user."))
}

// LastFrame returns the most recently drawn frame.
func (p *Presenter) LastFrame() string {
	return p.lastFrame
}

func (p *Presenter) frame(snap store.SeriesSnapshot, latest weather.Reading, iteration int) string {
	var b strings.Builder

	title := fmt.Sprintf("%s | Now: %.1f°C | Avg: %.1f°C", latest.City, latest.Temperature, snap.Average)
	b.WriteString(p.chart.Plot(title, snap.Labels, snap.Temperatures))
	b.WriteString("\n")

	s := p.styles
	fmt.Fprintln(&b, s.Rule.Render(rule))
	fmt.Fprintf(&b, "%s %s\n", s.Title.Render(latest.City), s.Label.Render(fmt.Sprintf("| Iteration: %d", iteration)))
	fmt.Fprintf(&b, "%s %s\n", s.Label.Render("Time:"), s.Value.Render(latest.Stamp()))
	fmt.Fprintf(&b, "%s %s | %s %s | %s %s\n",
		s.Label.Render("Temperature:"), s.Value.Render(fmt.Sprintf("%.1f°C", latest.Temperature)),
		s.Label.Render("Humidity:"), s.Value.Render(fmt.Sprintf("%g%%", latest.Humidity)),
		s.Label.Render("Wind:"), s.Value.Render(fmt.Sprintf("%g km/h", latest.WindSpeed)),
	)
	fmt.Fprintf(&b, "%s %s\n", s.Label.Render("Average so far:"), s.Value.Render(fmt.Sprintf("%.2f°C", snap.Average)))
	fmt.Fprintln(&b, s.Rule.Render(rule))

	return b.String()
}
