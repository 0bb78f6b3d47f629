package search

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// ProxyRotator hands out proxy URLs round-robin. An empty rotator sends
// requests direct.
type ProxyRotator struct {
	mu   sync.Mutex
	urls []*url.URL
	next int
}

func NewProxyRotator(raw []string) (*ProxyRotator, error) {
	pr := &ProxyRotator{}
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		u, err := url.Parse(r)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("bad proxy url %q", r)
		}
		pr.urls = append(pr.urls, u)
	}
	return pr, nil
}

// Proxy matches http.Transport.Proxy.
func (p *ProxyRotator) Proxy(_ *http.Request) (*url.URL, error) {
	if p == nil {
		return nil, nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.urls) == 0 {
		return nil, nil
	}
	u := p.urls[p.next%len(p.urls)]
	p.next++
	return u, nil
}

func (p *ProxyRotator) Len() int {
	if p == nil {
		return 0
	}
	return len(p.urls)
}
