package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atsscout-engine/internal/domain"
)

type fakeService struct {
	run     ServiceRun
	rows    []ServiceRow
	callErr error
	inputs  []ServiceInput
	reads   []string
}

func (f *fakeService) Call(_ context.Context, in ServiceInput) (ServiceRun, error) {
	f.inputs = append(f.inputs, in)
	return f.run, f.callErr
}

func (f *fakeService) Rows(_ context.Context, store string) ([]ServiceRow, error) {
	f.reads = append(f.reads, store)
	return f.rows, nil
}

func TestDelegatedSuccess(t *testing.T) {
	svc := &fakeService{
		run: ServiceRun{ID: "r1", Status: "SUCCEEDED", ResultStore: "ds1"},
		rows: []ServiceRow{
			{URL: "https://jobs.lever.co/acme/1", Title: "Go Engineer"},
			{URL: "", Title: "row without url"},
		},
	}
	d := NewDelegated(svc, DelegatedConfig{})

	got, err := d.Search(context.Background(), leverQuery, Limits{MaxResults: 25, Country: "US"})
	require.NoError(t, err)
	assert.Equal(t, []domain.RawSearchResult{
		{Title: "Go Engineer", URL: "https://jobs.lever.co/acme/1"},
		{Title: "row without url", URL: ""},
	}, got)

	require.Len(t, svc.inputs, 1)
	assert.Equal(t, ServiceInput{
		Queries:          leverQuery.Text,
		MaxPagesPerQuery: 1,
		ResultsPerPage:   25,
		Mode:             "search",
		CountryCode:      "us",
	}, svc.inputs[0])
	assert.Equal(t, []string{"ds1"}, svc.reads)
}

func TestDelegatedNonSuccessStatus(t *testing.T) {
	svc := &fakeService{run: ServiceRun{ID: "r2", Status: "FAILED"}}
	d := NewDelegated(svc, DelegatedConfig{})

	got, err := d.Search(context.Background(), leverQuery, Limits{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotSucceeded))
	assert.Nil(t, got)
	assert.Empty(t, svc.reads, "rows must not be read for a failed run")
}

func TestDelegatedCallError(t *testing.T) {
	svc := &fakeService{callErr: errors.New("dial tcp: refused")}
	_, err := NewDelegated(svc, DelegatedConfig{}).Search(context.Background(), leverQuery, Limits{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
}

func TestHTTPServicePollsUntilTerminal(t *testing.T) {
	var sawAuth string
	var sawInput ServiceInput
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/acts/owner~google-search/runs", func(w http.ResponseWriter, r *http.Request) {
		sawAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&sawInput)
		_, _ = w.Write([]byte(`{"data":{"id":"run-1","status":"RUNNING","defaultDatasetId":"ds-1"}}`))
	})
	mux.HandleFunc("/v2/actor-runs/run-1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"id":"run-1","status":"SUCCEEDED","defaultDatasetId":"ds-1"}}`))
	})
	mux.HandleFunc("/v2/datasets/ds-1/items", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("clean"))
		_, _ = w.Write([]byte(`[{"url":"https://jobs.lever.co/acme/1","title":"Go Engineer","position":1}]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc, err := NewHTTPService(DelegatedConfig{BaseURL: srv.URL + "/", Actor: "owner/google-search", Token: "tok", WaitSeconds: 1})
	require.NoError(t, err)

	run, err := svc.Call(context.Background(), ServiceInput{Queries: "q", Mode: "search"})
	require.NoError(t, err)
	assert.Equal(t, ServiceRun{ID: "run-1", Status: "SUCCEEDED", ResultStore: "ds-1"}, run)
	assert.Equal(t, "Bearer tok", sawAuth)
	assert.Equal(t, "search", sawInput.Mode)

	rows, err := svc.Rows(context.Background(), run.ResultStore)
	require.NoError(t, err)
	assert.Equal(t, []ServiceRow{{URL: "https://jobs.lever.co/acme/1", Title: "Go Engineer"}}, rows)
}

func TestHTTPServiceErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad token"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	svc, err := NewHTTPService(DelegatedConfig{BaseURL: srv.URL, Actor: "a/b"})
	require.NoError(t, err)
	_, err = svc.Call(context.Background(), ServiceInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestNewSelectsBackend(t *testing.T) {
	s, err := New(ModeDirect, Options{})
	require.NoError(t, err)
	assert.Equal(t, ModeDirect, s.Name())

	s, err = New(ModeDelegated, Options{Service: &fakeService{}})
	require.NoError(t, err)
	assert.Equal(t, ModeDelegated, s.Name())

	_, err = New(ModeDelegated, Options{})
	assert.Error(t, err, "delegated without base url")

	_, err = New("carrier-pigeon", Options{})
	assert.ErrorIs(t, err, ErrUnknownMode)
}
