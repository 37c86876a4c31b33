package present

import (
	"strings"

	"github.com/guptarohit/asciigraph"
)

// Chart renders a line chart of a value series with time labels beneath it.
type Chart struct {
	Height int
	// MaxWidth caps the plot width; longer series are interpolated down.
	MaxWidth int
	// MaxLabels caps the number of x-axis labels shown.
	MaxLabels int
}

func DefaultChart() Chart {
	return Chart{Height: 10, MaxWidth: 72, MaxLabels: 3}
}

// Plot returns the chart text, ending in a newline.
func (c Chart) Plot(title string, labels []string, values []float64) string {
	var b strings.Builder

	if len(values) == 0 {
		b.WriteString(title)
		b.WriteString("\n(no data)\n")
		return b.String()
	}

	opts := []asciigraph.Option{
		asciigraph.Height(c.Height),
		asciigraph.Precision(1),
		asciigraph.Caption(title),
	}
	if c.MaxWidth > 0 && len(values) > c.MaxWidth {
		opts = append(opts, asciigraph.Width(c.MaxWidth))
	}

	b.WriteString(asciigraph.Plot(values, opts...))
	b.WriteString("\n")

	if axis := axisLabels(labels, c.MaxLabels); axis != "" {
		b.WriteString(axis)
		b.WriteString("\n")
	}
	return b.String()
}

// axisLabels picks at most max evenly spaced labels, always keeping the first
// and last, so long sessions do not produce an unreadable axis.
func axisLabels(labels []string, max int) string {
	if len(labels) == 0 || max <= 0 {
		return ""
	}
	if max == 1 || len(labels) == 1 {
		return "x: " + labels[len(labels)-1]
	}

	picked := labels
	if len(labels) > max {
		picked = make([]string, 0, max)
		step := float64(len(labels)-1) / float64(max-1)
		for i := 0; i < max; i++ {
			picked = append(picked, labels[int(float64(i)*step+0.5)])
		}
	}
	return "x: " + strings.Join(picked, " .. ")
}
