package trace_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selimozcann/RedirectResolver/internal/httpclient"
	"github.com/selimozcann/RedirectResolver/internal/model"
	"github.com/selimozcann/RedirectResolver/internal/probe"
	"github.com/selimozcann/RedirectResolver/internal/trace"
)

const playStore = "https://play.google.com/store/apps/details?id=kr.automan.app2&referrer=e3JlY29tbToi7Jyk7IiY7JiBMSJ9"

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// routes maps absolute URLs to a status and Location, answering 404 otherwise.
func routes(table map[string][2]string) http.RoundTripper {
	return roundTripFunc(func(r *http.Request) (*http.Response, error) {
		h := http.Header{}
		status := http.StatusNotFound
		if rt, ok := table[r.URL.String()]; ok {
			fmt.Sscanf(rt[0], "%d", &status)
			if rt[1] != "" {
				h.Set("Location", rt[1])
			}
		}
		return &http.Response{StatusCode: status, Header: h, Body: io.NopCloser(strings.NewReader("")), Request: r}, nil
	})
}

func newTracer(t *testing.T, rt http.RoundTripper, timeout time.Duration, opts ...trace.Option) *trace.Tracer {
	t.Helper()
	transport := httpclient.NewTransport(httpclient.Config{Transport: rt, DialTimeout: timeout})
	p := probe.New(transport, probe.Config{Timeout: timeout})
	tr, err := trace.New(p, trace.Config{MaxRedirects: trace.DefaultMaxRedirects}, opts...)
	require.NoError(t, err)
	return tr
}

func TestResolveShortenerChain(t *testing.T) {
	rt := routes(map[string][2]string{
		"http://click.gl/L8NUWG":                          {"302", "http://boxs.kr/1K5YT"},
		"http://boxs.kr/1K5YT":                            {"302", "http://boxs.kr/index.php?url=1K5YT"},
		"http://boxs.kr/index.php?url=1K5YT":              {"302", "http://iii.im/1aX9"},
		"http://iii.im/1aX9":                              {"302", "http://auto-man.kr/%EC%9C%A4%EC%88%98%EC%98%811"},
		"http://auto-man.kr/%EC%9C%A4%EC%88%98%EC%98%811": {"302", playStore},
		playStore: {"200", ""},
	})
	tr := newTracer(t, rt, time.Second)

	got := tr.Resolve(context.Background(), "http://click.gl/L8NUWG")
	want := []string{
		"http://click.gl/L8NUWG",
		"http://boxs.kr/1K5YT",
		"http://boxs.kr/index.php?url=1K5YT",
		"http://iii.im/1aX9",
		"http://auto-man.kr/%EC%9C%A4%EC%88%98%EC%98%811",
		playStore,
	}
	assert.Equal(t, want, got)
}

func setupServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/302", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/to-slow", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/slow", http.StatusFound)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})
	mux.HandleFunc("/loop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	})
	mux.HandleFunc("/javascript", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "javascript:alert(1)")
		w.WriteHeader(http.StatusFound)
	})
	mux.HandleFunc("/to-bad-location", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/bad-location", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/bad-location", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "http://[::1")
		w.WriteHeader(http.StatusFound)
	})
	return httptest.NewServer(mux)
}

func TestTraceBasic(t *testing.T) {
	srv := setupServer()
	defer srv.Close()
	tr := newTracer(t, nil, 2*time.Second)

	res := tr.Trace(context.Background(), srv.URL+"/302")
	if len(res.Chain) != 2 {
		t.Fatalf("expected 2 urls, got %d: %v", len(res.Chain), res.Chain)
	}
	if res.Chain[1] != srv.URL+"/final" {
		t.Fatalf("unexpected final url %q", res.Chain[1])
	}
	if res.Stop != model.StopTerminal {
		t.Fatalf("expected terminal stop, got %s", res.Stop)
	}
	if len(res.Hops) != 2 || res.Hops[0].Status != http.StatusFound || res.Hops[1].Status != http.StatusOK {
		t.Fatalf("unexpected hops %+v", res.Hops)
	}
	if res.Final() != srv.URL+"/final" {
		t.Fatalf("unexpected Final %q", res.Final())
	}
}

func TestResolveImmediateOK(t *testing.T) {
	srv := setupServer()
	defer srv.Close()
	tr := newTracer(t, nil, 2*time.Second)

	assert.Equal(t, []string{srv.URL + "/final"}, tr.Resolve(context.Background(), srv.URL+"/final"))
}

func TestResolveWithheldHeaders(t *testing.T) {
	srv := setupServer()
	defer srv.Close()
	tr := newTracer(t, nil, 150*time.Millisecond)

	res := tr.Trace(context.Background(), srv.URL+"/slow")
	assert.Equal(t, []string{srv.URL + "/slow"}, res.Chain)
	assert.Equal(t, model.StopTimeout, res.Stop)
}

func TestResolveTimeoutMidChain(t *testing.T) {
	srv := setupServer()
	defer srv.Close()
	tr := newTracer(t, nil, 150*time.Millisecond)

	got := tr.Resolve(context.Background(), srv.URL+"/to-slow")
	assert.Equal(t, []string{srv.URL + "/to-slow", srv.URL + "/slow"}, got)
}

func TestResolveLoopIsDeduplicated(t *testing.T) {
	srv := setupServer()
	defer srv.Close()
	tr := newTracer(t, nil, 2*time.Second)

	res := tr.Trace(context.Background(), srv.URL+"/loop")
	assert.Equal(t, []string{srv.URL + "/loop"}, res.Chain)
	assert.Equal(t, model.StopMaxRedirects, res.Stop)
	assert.Len(t, res.Hops, trace.DefaultMaxRedirects)
}

func TestResolveNonHTTPLocation(t *testing.T) {
	srv := setupServer()
	defer srv.Close()
	tr := newTracer(t, nil, 2*time.Second)

	res := tr.Trace(context.Background(), srv.URL+"/javascript")
	assert.Equal(t, []string{srv.URL + "/javascript"}, res.Chain)
	assert.Equal(t, model.StopNoTarget, res.Stop)
}

func TestResolveUnparseableLocationIsTerminal(t *testing.T) {
	srv := setupServer()
	defer srv.Close()
	rec := &recorder{}
	tr := newTracer(t, nil, 2*time.Second, trace.WithRecorder(rec))

	res := tr.Trace(context.Background(), srv.URL+"/to-bad-location")
	assert.Equal(t, []string{srv.URL + "/to-bad-location", srv.URL + "/bad-location"}, res.Chain)
	assert.Equal(t, model.StopTerminal, res.Stop)
	require.Len(t, res.Hops, 2)
	last := res.Hops[1]
	assert.Equal(t, model.OutcomeTerminal, last.Outcome)
	assert.Equal(t, http.StatusFound, last.Status)
	assert.Empty(t, last.Error)
	assert.Equal(t, []string{model.OutcomeRedirect, model.OutcomeTerminal}, rec.probes)
}

// fakeProber answers from a script keyed by URL and counts calls.
type fakeProber struct {
	mu      sync.Mutex
	calls   []string
	answers map[string]fakeAnswer
	next    func(target string) fakeAnswer
}

type fakeAnswer struct {
	out probe.Outcome
	err error
}

func (f *fakeProber) Probe(_ context.Context, target string) (probe.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, target)
	if a, ok := f.answers[target]; ok {
		return a.out, a.err
	}
	if f.next != nil {
		a := f.next(target)
		return a.out, a.err
	}
	return probe.Outcome{Kind: probe.Terminal, Status: http.StatusOK}, nil
}

func redirect(loc string) fakeAnswer {
	return fakeAnswer{out: probe.Outcome{Kind: probe.Redirect, Status: http.StatusFound, Location: loc}}
}

func TestMaxRedirectsBound(t *testing.T) {
	n := 0
	fp := &fakeProber{next: func(string) fakeAnswer {
		n++
		return redirect(fmt.Sprintf("http://hop%d.example.com/", n))
	}}
	tr, err := trace.New(fp, trace.Config{MaxRedirects: 10})
	require.NoError(t, err)

	res := tr.Trace(context.Background(), "http://seed.example.com/")
	assert.Len(t, fp.calls, 10)
	assert.Len(t, res.Chain, 11)
	assert.Equal(t, "http://hop10.example.com/", res.Final())
	assert.Equal(t, model.StopMaxRedirects, res.Stop)
}

func TestZeroMaxRedirects(t *testing.T) {
	fp := &fakeProber{}
	tr, err := trace.New(fp, trace.Config{MaxRedirects: 0})
	require.NoError(t, err)

	assert.Equal(t, []string{"http://seed.example.com/"}, tr.Resolve(context.Background(), "http://seed.example.com/"))
	assert.Empty(t, fp.calls)
}

func TestNegativeMaxRedirectsRejected(t *testing.T) {
	_, err := trace.New(&fakeProber{}, trace.Config{MaxRedirects: -1})
	assert.Error(t, err)
}

func TestFailureTruncatesChain(t *testing.T) {
	tests := []struct {
		name string
		err  error
		stop model.StopReason
	}{
		{"timeout", fmt.Errorf("%w: slow", probe.ErrTimeout), model.StopTimeout},
		{"network", fmt.Errorf("%w: reset", probe.ErrNetwork), model.StopNetwork},
		{"canceled", context.Canceled, model.StopCanceled},
		{"other", errors.New("boom"), model.StopNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := &fakeProber{answers: map[string]fakeAnswer{
				"http://a.example.com/": redirect("http://b.example.com/"),
				"http://b.example.com/": redirect("http://c.example.com/"),
				"http://c.example.com/": {err: tt.err},
			}}
			tr, err := trace.New(fp, trace.Config{MaxRedirects: 10})
			require.NoError(t, err)

			res := tr.Trace(context.Background(), "http://a.example.com/")
			assert.Equal(t, []string{"http://a.example.com/", "http://b.example.com/", "http://c.example.com/"}, res.Chain)
			assert.Equal(t, tt.stop, res.Stop)
			require.Len(t, res.Hops, 3)
			assert.Equal(t, string(tt.stop), res.Hops[2].Outcome)
			assert.NotEmpty(t, res.Hops[2].Error)
		})
	}
}

func TestMultipleURLsInLocationCountAsOneHop(t *testing.T) {
	fp := &fakeProber{answers: map[string]fakeAnswer{
		"http://a.example.com/": redirect("http://x.example.com/ http://y.example.com/"),
		"http://y.example.com/": redirect("http://z.example.com/"),
	}}
	tr, err := trace.New(fp, trace.Config{MaxRedirects: 2})
	require.NoError(t, err)

	res := tr.Trace(context.Background(), "http://a.example.com/")
	assert.Equal(t, []string{
		"http://a.example.com/",
		"http://x.example.com/",
		"http://y.example.com/",
		"http://z.example.com/",
	}, res.Chain)
	assert.Equal(t, []string{"http://a.example.com/", "http://y.example.com/"}, fp.calls)
	assert.Equal(t, model.StopMaxRedirects, res.Stop)
}

func TestDuplicatesKeepFirstOccurrence(t *testing.T) {
	fp := &fakeProber{answers: map[string]fakeAnswer{
		"http://a.example.com/": redirect("http://b.example.com/"),
		"http://b.example.com/": redirect("http://a.example.com/"),
	}}
	tr, err := trace.New(fp, trace.Config{MaxRedirects: 5})
	require.NoError(t, err)

	res := tr.Trace(context.Background(), "http://a.example.com/")
	assert.Equal(t, []string{"http://a.example.com/", "http://b.example.com/"}, res.Chain)
	assert.Len(t, fp.calls, 5)
}

type recorder struct {
	probes []string
	stops  []model.StopReason
	lens   []int
}

func (r *recorder) ObserveProbe(outcome string, _ time.Duration) { r.probes = append(r.probes, outcome) }

func (r *recorder) ObserveWalk(stop model.StopReason, n int, _ time.Duration) {
	r.stops = append(r.stops, stop)
	r.lens = append(r.lens, n)
}

func TestRecorderObservesProbesAndWalk(t *testing.T) {
	fp := &fakeProber{answers: map[string]fakeAnswer{
		"http://a.example.com/": redirect("http://b.example.com/"),
	}}
	rec := &recorder{}
	tr, err := trace.New(fp, trace.Config{MaxRedirects: 10}, trace.WithRecorder(rec))
	require.NoError(t, err)

	tr.Resolve(context.Background(), "http://a.example.com/")
	assert.Equal(t, []string{model.OutcomeRedirect, model.OutcomeTerminal}, rec.probes)
	assert.Equal(t, []model.StopReason{model.StopTerminal}, rec.stops)
	assert.Equal(t, []int{2}, rec.lens)
}

func TestDedup(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"empty", nil, []string{}},
		{"unique", []string{"a", "b"}, []string{"a", "b"}},
		{"repeats", []string{"a", "b", "a", "c", "b"}, []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, trace.Dedup(tt.in))
		})
	}
}
