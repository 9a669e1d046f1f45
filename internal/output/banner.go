package output

import (
	"io"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
)

// PrintBanner writes the CLI banner to w.
func PrintBanner(w io.Writer) {
	fig := figure.NewFigure("RRESOLVER", "doom", true)
	_, _ = color.New(color.FgRed).Fprint(w, fig.String())

	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)

	_, _ = cyan.Fprintln(w, "════════════════════════════════════════════════")
	_, _ = green.Fprintln(w, "    Redirect Chain Resolver | Author: https://github.com/selimozcann")
	_, _ = cyan.Fprintln(w, "════════════════════════════════════════════════")
}
