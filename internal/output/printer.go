package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"

	"github.com/fatih/color"

	"github.com/selimozcann/RedirectResolver/internal/model"
)

// Printer renders results for a terminal.
type Printer struct {
	w  io.Writer
	mu sync.Mutex

	green  *color.Color
	yellow *color.Color
	red    *color.Color
	gray   *color.Color
	cyan   *color.Color
}

// NewPrinter creates a Printer. noColor forces plain output; otherwise
// fatih/color decides from the terminal.
func NewPrinter(w io.Writer, noColor bool) *Printer {
	p := &Printer{
		w:      w,
		green:  color.New(color.FgGreen),
		yellow: color.New(color.FgYellow),
		red:    color.New(color.FgRed),
		gray:   color.New(color.FgHiBlack),
		cyan:   color.New(color.FgCyan),
	}
	if noColor {
		for _, c := range []*color.Color{p.green, p.yellow, p.red, p.gray, p.cyan} {
			c.DisableColor()
		}
	}
	return p
}

func (p *Printer) colorFor(status int) *color.Color {
	switch {
	case status == 0:
		return p.gray
	case status >= 300 && status < 400:
		return p.green
	case status >= 400:
		return p.red
	default:
		return p.yellow
	}
}

// Status returns a colorized status code, or a dash when there is none.
func (p *Printer) Status(status int) string {
	if status == 0 {
		return p.gray.Sprint("-")
	}
	return p.colorFor(status).Sprint(strconv.Itoa(status))
}

// PrintResult prints every probe of r followed by the deduplicated chain.
func (p *Printer) PrintResult(r model.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.w, "\n[+] Resolving: %s\n", r.Target)
	seen := make(map[string]bool, len(r.Hops))
	for _, h := range r.Hops {
		switch h.Outcome {
		case model.OutcomeRedirect:
			fmt.Fprintf(p.w, "  [%d] %s %s\n", h.Index, h.URL, p.Status(h.Status))
			if len(h.Found) == 0 {
				p.yellow.Fprintf(p.w, "  [!] Location without absolute URL: %s\n", h.Location)
			}
		case model.OutcomeTerminal:
			fmt.Fprintf(p.w, "  [%d] %s %s\n", h.Index, h.URL, p.Status(h.Status))
		default:
			p.red.Fprintf(p.w, "  [!] %s at %s: %s\n", h.Outcome, h.URL, h.Error)
		}
		if seen[h.URL] {
			p.yellow.Fprintf(p.w, "  [!] Redirect loop detected at %s\n", h.URL)
			break
		}
		seen[h.URL] = true
	}

	switch r.Stop {
	case model.StopTerminal:
		p.green.Fprintf(p.w, "  ✔ Final URL reached: %s\n", r.Final())
	case model.StopMaxRedirects:
		p.yellow.Fprintf(p.w, "  [!] Redirect limit reached, last URL: %s\n", r.Final())
	default:
		p.gray.Fprintf(p.w, "  stopped (%s), last URL: %s\n", r.Stop, r.Final())
	}
	p.cyan.Fprintf(p.w, "  chain (%d): ", len(r.Chain))
	for i, u := range r.Chain {
		if i > 0 {
			fmt.Fprint(p.w, " → ")
		}
		fmt.Fprint(p.w, u)
	}
	fmt.Fprintln(p.w)
}

// PrintChain writes the deduplicated chain as a single JSON array line.
func (p *Printer) PrintChain(r model.Result) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	chain := r.Chain
	if chain == nil {
		chain = []string{}
	}
	enc := json.NewEncoder(p.w)
	enc.SetEscapeHTML(false)
	return enc.Encode(chain)
}

// Summary contains counters over a batch of results.
type Summary struct {
	TotalTargets int
	ByStop       map[model.StopReason]int
	TotalHops    int
}

// Summarize counts results by stop reason.
func Summarize(results []model.Result) Summary {
	s := Summary{TotalTargets: len(results), ByStop: map[model.StopReason]int{}}
	for _, r := range results {
		s.ByStop[r.Stop]++
		s.TotalHops += len(r.Hops)
	}
	return s
}

// PrintSummary prints the counters of s, stop reasons sorted by name.
func (p *Printer) PrintSummary(s Summary) {
	p.mu.Lock()
	defer p.mu.Unlock()

	reasons := make([]string, 0, len(s.ByStop))
	for k := range s.ByStop {
		reasons = append(reasons, string(k))
	}
	sort.Strings(reasons)

	p.cyan.Fprintf(p.w, "\n[=] %d target(s), %d probe(s)\n", s.TotalTargets, s.TotalHops)
	for _, k := range reasons {
		n := s.ByStop[model.StopReason(k)]
		c := p.gray
		if model.StopReason(k) == model.StopTerminal {
			c = p.green
		}
		c.Fprintf(p.w, "    %-14s %d\n", k, n)
	}
}
