package linkcheck

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Static and compile-time check to ensure Prober implements
// ReachabilityProber interface.
var _ ReachabilityProber = (*Prober)(nil)

const (
	defaultProbeTimeout = 10 * time.Second
	defaultUserAgent    = "uCheck/1.0 (+https://github.com/mycok/uCheck)"
)

// Schemes that cannot or need not be probed over HTTP. Links using
// them are always reported reachable.
var nonProbableSchemes = []string{"mailto:", "tel:", "javascript:"}

// Prober determines the reachability of a single link target by
// issuing a HEAD request and inspecting the response status line.
// Probers do not throttle; callers are expected to pace their probe
// requests.
type Prober struct {
	doer      URLDoer
	timeout   time.Duration
	userAgent string
}

// NewProber returns a Prober that issues requests through the provided
// URLDoer. A nil doer defaults to http.DefaultClient and a
// non-positive timeout defaults to 10 seconds.
func NewProber(doer URLDoer, timeout time.Duration) *Prober {
	if doer == nil {
		doer = http.DefaultClient
	}

	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}

	return &Prober{
		doer:      doer,
		timeout:   timeout,
		userAgent: defaultUserAgent,
	}
}

// IsReachable reports whether the provided link target currently
// resolves successfully. Any status code in [200,400) counts as
// reachable; every other status, timeout, DNS failure or connection
// error counts as unreachable. Transport failures are folded into the
// verdict so that callers never need to special-case them.
func (p *Prober) IsReachable(ctx context.Context, rawURL string) bool {
	trimmed := strings.TrimSpace(rawURL)
	lower := strings.ToLower(trimmed)

	// Fragment references and non-probable schemes cannot be verified
	// over HTTP and are assumed healthy.
	if strings.HasPrefix(lower, "#") {
		return true
	}

	for _, scheme := range nonProbableSchemes {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}

	// Scheme-less targets are probed as plain HTTP.
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}

	parsedURL, err := url.Parse(trimmed)
	if err != nil || !parsedURL.IsAbs() || parsedURL.Host == "" {
		return false
	}

	return p.probe(ctx, parsedURL.String())
}

func (p *Prober) probe(ctx context.Context, target string) bool {
	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	statusCode, ok := p.request(probeCtx, http.MethodHead, target)
	if !ok {
		return false
	}

	// Some servers reject HEAD outright. Retry once with GET before
	// declaring the target unreachable.
	if statusCode == http.StatusMethodNotAllowed ||
		statusCode == http.StatusNotImplemented {

		statusCode, ok = p.request(probeCtx, http.MethodGet, target)
		if !ok {
			return false
		}
	}

	return statusCode >= http.StatusOK &&
		statusCode < http.StatusBadRequest
}

func (p *Prober) request(
	ctx context.Context, method, target string,
) (int, bool) {

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return 0, false
	}

	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.doer.Do(req)
	if err != nil {
		return 0, false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode, true
}
