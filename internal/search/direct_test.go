package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atsscout-engine/internal/domain"
)

type fakeDebugStore struct {
	mu    sync.Mutex
	pages map[domain.Platform][]byte
}

func (f *fakeDebugStore) SaveDebugPage(_ context.Context, p domain.Platform, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pages == nil {
		f.pages = map[domain.Platform][]byte{}
	}
	f.pages[p] = append([]byte(nil), body...)
	return nil
}

func htmlServer(t *testing.T, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

var leverQuery = Query{Platform: "lever.co", Text: `site:lever.co "golang" "Remote"`}

const primaryLayout = `<html><body>
<div class="g"><a href="/url?q=https://jobs.lever.co/acme/1%3Fsrc%3Dg&amp;sa=U"><h3>Go Engineer</h3></a></div>
<div class="g"><a href="https://jobs.lever.co/beta/2"><h3> Platform  Engineer </h3></a></div>
<div class="g"><a href="/search?q=more"><h3>More results</h3></a></div>
<div class="g"><a href="https://jobs.lever.co/no-title/3"></a></div>
<a href="https://jobs.lever.co/outside/4"><h3>Outside block</h3></a>
</body></html>`

func TestDirectPrimarySelector(t *testing.T) {
	srv, _ := htmlServer(t, primaryLayout)
	d := NewDirect(DirectConfig{Endpoint: srv.URL})

	got, err := d.Search(context.Background(), leverQuery, Limits{MaxResults: 10})
	require.NoError(t, err)
	assert.Equal(t, []domain.RawSearchResult{
		{Title: "Go Engineer", URL: "https://jobs.lever.co/acme/1?src=g"},
		{Title: "Platform Engineer", URL: "https://jobs.lever.co/beta/2"},
	}, got)
}

func TestDirectFallsBackToLaterSelector(t *testing.T) {
	srv, _ := htmlServer(t, `<html><body>
<div class="result"><a href="https://jobs.lever.co/acme/9"><h3>Staff Engineer</h3></a></div>
</body></html>`)
	d := NewDirect(DirectConfig{Endpoint: srv.URL})

	got, err := d.Search(context.Background(), leverQuery, Limits{})
	require.NoError(t, err)
	assert.Equal(t, []domain.RawSearchResult{{Title: "Staff Engineer", URL: "https://jobs.lever.co/acme/9"}}, got)
}

func TestDirectNoSelectorMatchSavesDebugPage(t *testing.T) {
	body := `<html><body><p>unusual traffic from your computer network</p></body></html>`
	srv, _ := htmlServer(t, body)
	dbg := &fakeDebugStore{}
	d := NewDirect(DirectConfig{Endpoint: srv.URL, Debug: dbg})

	got, err := d.Search(context.Background(), leverQuery, Limits{})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, body, string(dbg.pages["lever.co"]))
}

func TestDirectRetriesThenSucceeds(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(primaryLayout))
	}))
	defer srv.Close()

	d := NewDirect(DirectConfig{Endpoint: srv.URL, Attempts: 3})
	got, err := d.Search(context.Background(), leverQuery, Limits{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.EqualValues(t, 3, hits.Load())
}

func TestDirectGivesUpAfterAttempts(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "blocked", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	d := NewDirect(DirectConfig{Endpoint: srv.URL, Attempts: 3})
	_, err := d.Search(context.Background(), leverQuery, Limits{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
	assert.EqualValues(t, 3, hits.Load())
}

func TestDirectRequestShape(t *testing.T) {
	var gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(primaryLayout))
	}))
	defer srv.Close()

	d := NewDirect(DirectConfig{Endpoint: srv.URL})
	_, err := d.Search(context.Background(), leverQuery, Limits{MaxResults: 20, PostedWithinDays: 7, Country: "us"})
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "num=20")
	assert.Contains(t, gotQuery, "gl=us")
	assert.Contains(t, gotQuery, "tbs=qdr%3Ad7")
	assert.Contains(t, gotQuery, "q=site%3Alever.co")
	assert.Contains(t, userAgents, gotUA)
}

func TestRunSelectorsCommitsToFirstMatch(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(primaryLayout))
	require.NoError(t, err)

	name, cands := RunSelectors(doc, DefaultSelectors)
	assert.Equal(t, "div.g", name)
	// the anchor outside any div.g belongs to a later selector and is dropped
	for _, c := range cands {
		assert.NotContains(t, c.URL, "outside")
	}
	assert.Len(t, cands, 3)
}

func TestRunSelectorsNoMatch(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><body><div class="g"></div></body></html>`))
	require.NoError(t, err)

	name, cands := RunSelectors(doc, DefaultSelectors)
	assert.Empty(t, name)
	assert.Empty(t, cands)
}

func TestProxyRotatorRoundRobin(t *testing.T) {
	pr, err := NewProxyRotator([]string{"http://p1:8080", " ", "http://p2:8080"})
	require.NoError(t, err)
	require.Equal(t, 2, pr.Len())

	var hosts []string
	for i := 0; i < 3; i++ {
		u, err := pr.Proxy(nil)
		require.NoError(t, err)
		hosts = append(hosts, u.Host)
	}
	assert.Equal(t, []string{"p1:8080", "p2:8080", "p1:8080"}, hosts)

	var empty *ProxyRotator
	u, err := empty.Proxy(nil)
	assert.NoError(t, err)
	assert.Nil(t, u)

	_, err = NewProxyRotator([]string{"::nope"})
	assert.Error(t, err)
}
