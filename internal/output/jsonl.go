package output

import (
	"bufio"
	"encoding/json"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/selimozcann/RedirectResolver/internal/model"
)

// Record represents one line in the JSONL output.
type Record struct {
	Timestamp     string           `json:"timestamp"`
	InputURL      string           `json:"input_url"`
	FinalURL      string           `json:"final_url"`
	RedirectChain []string         `json:"redirect_chain"`
	StatusCode    int              `json:"status_code,omitempty"`
	CrossDomain   bool             `json:"cross_domain"`
	Stop          model.StopReason `json:"stop"`
	Hops          []model.Hop      `json:"hops"`
	DurationMs    int64            `json:"duration_ms"`
	Error         string           `json:"error,omitempty"`
}

// BuildRecord converts a model.Result into a Record for JSONL output.
func BuildRecord(res model.Result) Record {
	rec := Record{
		Timestamp:     res.StartedAt.UTC().Format(time.RFC3339),
		InputURL:      res.Target,
		FinalURL:      res.Final(),
		RedirectChain: res.Chain,
		Stop:          res.Stop,
		Hops:          res.Hops,
		DurationMs:    res.DurationMs,
		CrossDomain:   crossDomain(res.Target, res.Final()),
	}
	if rec.RedirectChain == nil {
		rec.RedirectChain = []string{}
	}
	if rec.Hops == nil {
		rec.Hops = []model.Hop{}
	}
	if n := len(res.Hops); n > 0 {
		last := res.Hops[n-1]
		rec.StatusCode = last.Status
		rec.Error = last.Error
	}
	return rec
}

// registrableDomain approximates the eTLD+1 of a URL host by its last two
// labels.
func registrableDomain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return host
	}
	return strings.Join(parts[len(parts)-2:], ".")
}

func crossDomain(from, to string) bool {
	a, b := registrableDomain(from), registrableDomain(to)
	return a != "" && b != "" && a != b
}

// JSONLWriter writes one Record per line as JSON.
type JSONLWriter struct {
	w   *bufio.Writer
	enc *json.Encoder
	c   io.Closer
	mu  sync.Mutex
}

// NewJSONLWriter wraps an io.Writer with buffering. If w is also an io.Closer
// it is closed by Close.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	j := &JSONLWriter{w: bw, enc: enc}
	if c, ok := w.(io.Closer); ok {
		j.c = c
	}
	return j
}

// Write writes a single result as a JSON line.
func (j *JSONLWriter) Write(r model.Result) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.enc.Encode(BuildRecord(r))
}

// Flush flushes the underlying buffer.
func (j *JSONLWriter) Flush() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.w.Flush()
}

// Close flushes the buffer and closes the destination.
func (j *JSONLWriter) Close() error {
	if err := j.Flush(); err != nil {
		return err
	}
	if j.c != nil {
		return j.c.Close()
	}
	return nil
}
