// Package proxy forwards /api calls to the metrics API and serves the
// pre-built single page application.
package proxy

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/wayne-insights/dashboard/internal/platform/httpx"
)

const (
	// PublicPrefix is the path prefix clients call.
	PublicPrefix = "/api"
	// UpstreamPrefix replaces PublicPrefix on the forwarded request.
	UpstreamPrefix = "/api/v1"
)

// Observer records relayed responses. Status 0 means the upstream was unreachable.
type Observer interface {
	ObserveUpstream(status int)
}

// Option customises the API proxy.
type Option func(*httputil.ReverseProxy, *settings)

type settings struct {
	logger   *slog.Logger
	observer Observer
}

// WithLogger sets the logger used for upstream failures.
func WithLogger(logger *slog.Logger) Option {
	return func(_ *httputil.ReverseProxy, s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver records every relayed response.
func WithObserver(o Observer) Option {
	return func(_ *httputil.ReverseProxy, s *settings) {
		s.observer = o
	}
}

// WithTransport replaces the round tripper used to reach the upstream.
func WithTransport(rt http.RoundTripper) Option {
	return func(p *httputil.ReverseProxy, _ *settings) {
		if rt != nil {
			p.Transport = rt
		}
	}
}

// NewAPIProxy returns a handler forwarding /api/* to upstream/api/v1/*.
// The Host header is set to the upstream host. Nothing is retried.
func NewAPIProxy(upstream string, opts ...Option) (http.Handler, error) {
	target, err := url.Parse(upstream)
	if err != nil {
		return nil, fmt.Errorf("proxy: parse upstream %q: %w", upstream, err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("proxy: upstream %q must be an absolute URL", upstream)
	}

	s := &settings{logger: slog.Default()}
	p := &httputil.ReverseProxy{}
	for _, opt := range opts {
		opt(p, s)
	}

	p.Rewrite = func(pr *httputil.ProxyRequest) {
		pr.Out.URL.Path = RewritePath(pr.In.URL.Path)
		pr.Out.URL.RawPath = ""
		pr.SetURL(target)
		pr.SetXForwarded()
	}
	p.ModifyResponse = func(resp *http.Response) error {
		if s.observer != nil {
			s.observer.ObserveUpstream(resp.StatusCode)
		}
		return nil
	}
	p.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		if s.observer != nil {
			s.observer.ObserveUpstream(0)
		}
		s.logger.Error("proxy upstream", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.RespondError(w, httpx.ErrBadGateway)
	}
	return p, nil
}

// RewritePath maps /api and /api/... onto the versioned upstream prefix.
// Other paths are returned unchanged.
func RewritePath(path string) string {
	if path == PublicPrefix || strings.HasPrefix(path, PublicPrefix+"/") {
		return UpstreamPrefix + strings.TrimPrefix(path, PublicPrefix)
	}
	return path
}
