package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

type DelegatedConfig struct {
	BaseURL     string // e.g. https://api.apify.com
	Actor       string // owner/name
	Token       string
	WaitSeconds int // per long-poll request
	Timeout     time.Duration
	Logger      *zap.Logger
}

// HTTPService talks to an actor-style run API:
//
//	POST {base}/v2/acts/{actor}/runs?waitForFinish=N   start a run
//	GET  {base}/v2/actor-runs/{id}?waitForFinish=N      poll it
//	GET  {base}/v2/datasets/{id}/items?clean=true       read its rows
type HTTPService struct {
	cfg DelegatedConfig
	hc  *http.Client
}

func NewHTTPService(cfg DelegatedConfig) (*HTTPService, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("delegated search: base url is required")
	}
	if strings.TrimSpace(cfg.Actor) == "" {
		return nil, errors.New("delegated search: actor is required")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.WaitSeconds <= 0 {
		cfg.WaitSeconds = 60
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Duration(cfg.WaitSeconds+30) * time.Second
	}
	return &HTTPService{cfg: cfg, hc: &http.Client{Timeout: cfg.Timeout}}, nil
}

type runEnvelope struct {
	Data struct {
		ID               string `json:"id"`
		Status           string `json:"status"`
		DefaultDatasetID string `json:"defaultDatasetId"`
	} `json:"data"`
}

func (s *HTTPService) Call(ctx context.Context, in ServiceInput) (ServiceRun, error) {
	b, err := json.Marshal(in)
	if err != nil {
		return ServiceRun{}, err
	}
	actor := strings.ReplaceAll(s.cfg.Actor, "/", "~")
	u := fmt.Sprintf("%s/v2/acts/%s/runs?waitForFinish=%d", s.cfg.BaseURL, url.PathEscape(actor), s.cfg.WaitSeconds)

	var env runEnvelope
	if err := s.do(ctx, http.MethodPost, u, b, &env); err != nil {
		return ServiceRun{}, err
	}
	for !terminalStatus(env.Data.Status) {
		if env.Data.ID == "" {
			return ServiceRun{}, errors.New("search service returned a run without id")
		}
		if err := ctx.Err(); err != nil {
			return ServiceRun{}, err
		}
		u = fmt.Sprintf("%s/v2/actor-runs/%s?waitForFinish=%d", s.cfg.BaseURL, url.PathEscape(env.Data.ID), s.cfg.WaitSeconds)
		if err := s.do(ctx, http.MethodGet, u, nil, &env); err != nil {
			return ServiceRun{}, err
		}
	}
	return ServiceRun{ID: env.Data.ID, Status: env.Data.Status, ResultStore: env.Data.DefaultDatasetID}, nil
}

func (s *HTTPService) Rows(ctx context.Context, resultStore string) ([]ServiceRow, error) {
	if resultStore == "" {
		return nil, errors.New("search service run has no result store")
	}
	u := fmt.Sprintf("%s/v2/datasets/%s/items?clean=true&format=json", s.cfg.BaseURL, url.PathEscape(resultStore))
	var rows []ServiceRow
	if err := s.do(ctx, http.MethodGet, u, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *HTTPService) do(ctx context.Context, method, u string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	}
	res, err := s.hc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("search service %s %s: status %s: %s", method, redact(u), strconv.Itoa(res.StatusCode), strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode search service response: %w", err)
	}
	return nil
}

func terminalStatus(s string) bool {
	switch strings.ToUpper(s) {
	case "SUCCEEDED", "FAILED", "ABORTED", "TIMED-OUT", "TIMED_OUT":
		return true
	}
	return false
}

func redact(u string) string {
	if i := strings.IndexByte(u, '?'); i >= 0 {
		return u[:i]
	}
	return u
}
