package fetch

import (
	"context"
	"io"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"
	"golang.org/x/net/publicsuffix"
)

// crawlDelayToken is matched case-sensitively; published robots files
// almost universally capitalize the directive this way.
const crawlDelayToken = "Crawl-delay"

// Policy is the cached robots record for one registrable domain.
type Policy struct {
	Domain     string
	Body       string
	CrawlDelay time.Duration
	data       *robotstxt.RobotsData // nil when robots.txt was unavailable
}

// Allowed reports whether userAgent may fetch target under this policy.
// A policy without usable robots data imposes no restriction.
func (p *Policy) Allowed(userAgent string, target *url.URL) bool {
	if p.data == nil {
		return true
	}
	return p.data.TestAgent(target.RequestURI(), userAgent)
}

// RobotsPolicies caches one robots.txt policy per registrable domain for
// the lifetime of a crawl run. Fetch failures are cached fail-open (no
// rules, default delay) and never retried within the run.
//
// The cache key is the registrable domain, not the full host, so
// subdomains sharing a domain share one record. Host-scoped robots files
// are therefore conflated; this matches the original crawler's behavior.
type RobotsPolicies struct {
	fetcher      *Fetcher
	defaultDelay time.Duration
	rate         *RateLimiter // optional; records the robots fetch itself
	cache        map[string]*Policy
	cacheMu      sync.Mutex
	log          *logrus.Entry
}

// NewRobotsPolicies creates an empty per-run robots cache. When rate is
// non-nil, each robots.txt fetch is recorded in it so the domain's first
// page fetch is paced too.
func NewRobotsPolicies(fetcher *Fetcher, defaultDelay time.Duration, rate *RateLimiter, log *logrus.Entry) *RobotsPolicies {
	return &RobotsPolicies{
		fetcher:      fetcher,
		defaultDelay: defaultDelay,
		rate:         rate,
		cache:        make(map[string]*Policy),
		log:          log,
	}
}

// DomainKey returns the robots cache key for a host: its registrable
// domain, or the host itself for IP addresses and hosts without a public
// suffix.
func DomainKey(host string) string {
	domain, err := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(host))
	if err != nil {
		return strings.ToLower(host)
	}
	return domain
}

// GetPolicy returns the cached policy for targetURL's domain, fetching
// robots.txt on first access. Two branches racing on the same uncached
// domain may both fetch; the last write wins.
func (rp *RobotsPolicies) GetPolicy(ctx context.Context, targetURL *url.URL) *Policy {
	domain := DomainKey(targetURL.Hostname())

	rp.cacheMu.Lock()
	policy, found := rp.cache[domain]
	rp.cacheMu.Unlock()
	if found {
		return policy
	}

	policy = rp.fetchPolicy(ctx, targetURL, domain)

	rp.cacheMu.Lock()
	rp.cache[domain] = policy
	rp.cacheMu.Unlock()
	return policy
}

// fetchPolicy retrieves and parses robots.txt for the domain. Any network
// error, non-2xx status, or unreadable body degrades to the unrestricted
// fallback policy.
func (rp *RobotsPolicies) fetchPolicy(ctx context.Context, targetURL *url.URL, domain string) *Policy {
	robotsURL := &url.URL{Scheme: targetURL.Scheme, Host: targetURL.Host, Path: "/robots.txt"}
	domLog := rp.log.WithFields(logrus.Fields{"domain": domain, "robots_url": robotsURL.String()})
	domLog.Debug("Fetching robots.txt...")

	fallback := &Policy{Domain: domain, CrawlDelay: rp.defaultDelay}

	resp, err := rp.fetcher.Fetch(ctx, robotsURL.String())
	if rp.rate != nil {
		rp.rate.UpdateLastRequestTime(domain)
	}
	if err != nil {
		domLog.Warnf("robots.txt fetch failed, proceeding without restrictions: %v", err)
		return fallback
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		domLog.Debugf("robots.txt returned status %d, proceeding without restrictions", resp.StatusCode)
		return fallback
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		domLog.Warnf("Error reading robots.txt body, proceeding without restrictions: %v", err)
		return fallback
	}
	body := string(bodyBytes)

	data, err := robotstxt.FromBytes(bodyBytes)
	if err != nil {
		domLog.Warnf("Error parsing robots.txt, proceeding without restrictions: %v", err)
		data = nil
	}

	domLog.Debug("Fetched and parsed robots.txt")
	return &Policy{
		Domain:     domain,
		Body:       body,
		CrawlDelay: ParseCrawlDelay(body, rp.defaultDelay),
		data:       data,
	}
}

// ParseCrawlDelay extracts the crawl delay from a robots.txt body: the
// first line containing the Crawl-delay token is split on ':' and the
// trailing segment parsed as whole seconds. When no such line exists or
// the value does not parse, def is returned.
func ParseCrawlDelay(body string, def time.Duration) time.Duration {
	for _, line := range strings.Split(body, "\n") {
		if !strings.Contains(line, crawlDelayToken) {
			continue
		}
		parts := strings.Split(line, ":")
		secs, err := strconv.ParseUint(strings.TrimSpace(parts[len(parts)-1]), 10, 64)
		if err != nil {
			return def
		}
		return time.Duration(secs) * time.Second
	}
	return def
}
