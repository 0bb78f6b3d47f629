package search

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"atsscout-engine/internal/domain"
	"atsscout-engine/internal/scrape/util"
)

const (
	DefaultEndpoint = "https://www.google.com/search"
	defaultAttempts = 3
	maxResultHint   = 100
	maxBodyBytes    = 5 << 20
)

type DirectConfig struct {
	Endpoint  string // results page URL; defaults to DefaultEndpoint
	Attempts  int
	Backoff   time.Duration // multiplied by the attempt number
	Timeout   time.Duration
	Proxies   *ProxyRotator
	Limiter   *util.HostLimiter
	Debug     DebugStore
	Selectors []Selector
	Logger    *zap.Logger
}

// Direct fetches the search engine's results page itself and parses it.
type Direct struct {
	cfg DirectConfig
	hc  *http.Client
	log *zap.Logger
}

func NewDirect(cfg DirectConfig) *Direct {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = defaultAttempts
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if len(cfg.Selectors) == 0 {
		cfg.Selectors = DefaultSelectors
	}
	lg := cfg.Logger
	if lg == nil {
		lg = zap.NewNop()
	}
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.Proxy = cfg.Proxies.Proxy
	return &Direct{
		cfg: cfg,
		hc:  &http.Client{Timeout: cfg.Timeout, Transport: tr},
		log: lg.Named("search.direct"),
	}
}

func (d *Direct) Name() string { return ModeDirect }

func (d *Direct) Search(ctx context.Context, q Query, lim Limits) ([]domain.RawSearchResult, error) {
	pageURL := d.resultsURL(q, lim)

	body, err := d.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse results html: %w", err)
	}

	name, cands := RunSelectors(doc, d.cfg.Selectors)
	if name == "" {
		d.log.Warn("no selector matched results page",
			zap.String("platform", string(q.Platform)), zap.Int("bytes", len(body)))
		if d.cfg.Debug != nil {
			if err := d.cfg.Debug.SaveDebugPage(ctx, q.Platform, body); err != nil {
				d.log.Warn("save debug page", zap.String("platform", string(q.Platform)), zap.Error(err))
			}
		}
		return nil, nil
	}

	out := acceptCandidates(cands)
	d.log.Debug("selector matched",
		zap.String("platform", string(q.Platform)),
		zap.String("selector", name),
		zap.Int("candidates", len(cands)),
		zap.Int("accepted", len(out)))
	return out, nil
}

func (d *Direct) resultsURL(q Query, lim Limits) string {
	v := url.Values{}
	v.Set("q", q.Text)
	v.Set("hl", "en")
	num := lim.MaxResults
	if num <= 0 || num > maxResultHint {
		num = maxResultHint
	}
	v.Set("num", strconv.Itoa(num))
	if lim.Country != "" {
		v.Set("gl", lim.Country)
	}
	if lim.PostedWithinDays > 0 {
		v.Set("tbs", "qdr:d"+strconv.Itoa(lim.PostedWithinDays))
	}
	return d.cfg.Endpoint + "?" + v.Encode()
}

// fetch GETs u with up to cfg.Attempts tries.
func (d *Direct) fetch(ctx context.Context, u string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= d.cfg.Attempts; attempt++ {
		if attempt > 1 && d.cfg.Backoff > 0 {
			t := time.NewTimer(time.Duration(attempt-1) * d.cfg.Backoff)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, ctx.Err()
			case <-t.C:
			}
		}

		body, err := d.fetchOnce(ctx, u)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		d.log.Debug("fetch attempt failed", zap.Int("attempt", attempt), zap.Error(err))
	}
	return nil, fmt.Errorf("fetch results page after %d attempts: %w", d.cfg.Attempts, lastErr)
}

func (d *Direct) fetchOnce(ctx context.Context, u string) ([]byte, error) {
	if err := d.cfg.Limiter.WaitURL(ctx, u); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	setClientIdentity(req.Header)

	res, err := d.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
		return nil, fmt.Errorf("results page status %d", res.StatusCode)
	}
	return io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
}
