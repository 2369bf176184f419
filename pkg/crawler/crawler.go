package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"crawly/pkg/config"
	"crawly/pkg/fetch"
	"crawly/pkg/parse"
	"crawly/pkg/utils"
)

// Crawler owns the pieces shared by every run: the configuration and the
// HTTP fetch stack. All mutable crawl state lives in a crawlRun, created
// fresh per Start call.
type Crawler struct {
	cfg     *config.Config
	client  *http.Client
	fetcher *fetch.Fetcher
	log     *logrus.Logger
}

// New validates cfg, builds the shared HTTP client, and returns a Crawler
// ready to Start. Construction fails fast on an invalid configuration;
// validation warnings are logged and do not block.
func New(cfg *config.Config, log *logrus.Logger) (*Crawler, error) {
	if cfg == nil {
		cfg = config.New()
	}
	if log == nil {
		log = logrus.New()
	}

	warnings, err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrConfigValidation, err)
	}
	for _, w := range warnings {
		log.Warn(w)
	}

	client := fetch.NewClient(cfg.HTTPClient, log)
	return &Crawler{
		cfg:     cfg,
		client:  client,
		fetcher: fetch.NewFetcher(client, cfg.UserAgent, logrus.NewEntry(log)),
		log:     log,
	}, nil
}

// crawlRun holds the mutable state for a single Start call: the robots
// cache, rate limiter, fetch permits, visited registry, and result map.
// Nothing here outlives the run.
type crawlRun struct {
	cfg     *config.Config
	fetcher *fetch.Fetcher
	robots  *fetch.RobotsPolicies
	rate    *fetch.RateLimiter
	permits *semaphore.Weighted
	visited *visitedSet
	content *ContentMap
	log     *logrus.Entry
}

// Start crawls from seed and returns the fetched pages in completion
// order. Only a malformed seed fails the call: per-page failures —
// including a failure of the seed page itself — are absorbed into a
// silently smaller result.
func (c *Crawler) Start(ctx context.Context, seed string) (*ContentMap, error) {
	root, err := url.ParseRequestURI(seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", utils.ErrInvalidSeedURL, seed, err)
	}
	if root.Scheme != "http" && root.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q: scheme must be http or https", utils.ErrInvalidSeedURL, seed)
	}
	if root.Hostname() == "" {
		return nil, fmt.Errorf("%w: %q: host is required", utils.ErrInvalidSeedURL, seed)
	}

	runLog := c.log.WithField("run_id", uuid.NewString())
	rate := fetch.NewRateLimiter(c.cfg.RateLimitWait, runLog)
	run := &crawlRun{
		cfg:     c.cfg,
		fetcher: c.fetcher,
		robots:  fetch.NewRobotsPolicies(c.fetcher, c.cfg.RateLimitWait, rate, runLog),
		rate:    rate,
		permits: semaphore.NewWeighted(int64(c.cfg.MaxConcurrentRequests)),
		visited: newVisitedSet(c.cfg.MaxPages),
		content: NewContentMap(),
		log:     runLog,
	}

	runLog.WithFields(logrus.Fields{
		"seed":        root.String(),
		"max_depth":   c.cfg.MaxDepth,
		"max_pages":   c.cfg.MaxPages,
		"concurrency": c.cfg.MaxConcurrentRequests,
		"robots":      c.cfg.RespectRobots,
	}).Info("Crawl starting")

	if err := run.crawl(ctx, root, 0); err != nil {
		runLog.WithField("category", utils.CategorizeError(err)).Warnf("Seed branch failed: %v", err)
	}

	runLog.WithField("pages", run.content.Len()).Info("Crawl finished")
	return run.content, nil
}

// crawl processes one (url, depth) node of the traversal tree. Steps are
// strictly sequential within a branch; fan-out into child links happens in
// one goroutine per link, and the call returns only after every spawned
// child has settled. A returned error is this branch's alone: callers log
// and absorb it, so sibling and ancestor branches are unaffected.
func (r *crawlRun) crawl(ctx context.Context, u *url.URL, depth int) error {
	urlKey := parse.NormalizeURL(u)
	branchLog := r.log.WithFields(logrus.Fields{"url": urlKey, "depth": depth})

	// Admission: depth budget, page ceiling, duplicate claim. All checked
	// before any network I/O.
	if depth > r.cfg.MaxDepth || !r.visited.Admit(urlKey) {
		branchLog.Debug("Admission refused (depth, page ceiling, or already visited)")
		return nil
	}

	if err := r.permits.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquiring fetch permit: %w", err)
	}
	held := true
	release := func() {
		if held {
			r.permits.Release(1)
			held = false
		}
	}
	defer release()

	// Re-check admission with the permit held. Siblings that passed the
	// first check while this branch waited may have claimed the URL or
	// filled the page budget; marks happen before the permit is released,
	// so the overshoot past the ceiling is capped at the permit count
	// minus one, and a single permit makes the ceiling exact.
	if !r.visited.Admit(urlKey) {
		branchLog.Debug("Admission refused after permit wait")
		return nil
	}

	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("%w: %q", utils.ErrHostResolution, u.String())
	}
	domain := fetch.DomainKey(host)

	// Politeness: consult robots and pace same-domain requests while
	// already holding a permit, so waiting branches cannot pile onto the
	// network.
	if r.cfg.RespectRobots {
		policy := r.robots.GetPolicy(ctx, u)
		r.rate.ApplyDelay(ctx, domain, policy.CrawlDelay)
		if !policy.Allowed(r.cfg.UserAgent, u) {
			branchLog.Debug("Disallowed by robots.txt")
			return nil
		}
	} else {
		r.rate.ApplyDelay(ctx, domain, r.cfg.RateLimitWait)
	}

	resp, err := r.fetcher.Fetch(ctx, u.String())
	r.rate.UpdateLastRequestTime(domain)
	if err != nil {
		return err
	}

	// A challenge response has no usable content. The URL is not marked
	// visited, so a later run may retry it.
	if fetch.IsMitigated(resp) {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		branchLog.Debug("Bot-mitigation challenge, skipping URL")
		return nil
	}

	payload, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("%w: %q: %w", utils.ErrResponseBodyRead, u.String(), readErr)
	}

	if !mimeAccepted(r.cfg.AllowedMIMEs, payload) {
		// The URL is burned for this run but its payload is not kept.
		r.visited.Mark(urlKey)
		release()
		branchLog.Debug("Sniffed type outside allow-list, payload discarded")
		return nil
	}

	if !utf8.Valid(payload) {
		return fmt.Errorf("%w: %q", utils.ErrDecode, u.String())
	}
	text := string(payload)

	r.content.add(urlKey, text)
	r.visited.Mark(urlKey)

	// Free the permit before fan-out: slots bound concurrent fetches, not
	// the depth of the traversal tree.
	release()

	if r.visited.Len() >= r.cfg.MaxPages {
		branchLog.Debug("Page ceiling reached, not recursing")
		return nil
	}

	links, err := parse.ExtractLinks(text)
	if err != nil {
		return err
	}
	branchLog.WithField("links", len(links)).Debug("Fanning out into extracted links")

	var children sync.WaitGroup
	for _, href := range links {
		child, ok := parse.ResolveLink(u, href)
		if !ok {
			continue
		}
		children.Add(1)
		go func(childURL *url.URL) {
			defer children.Done()
			if childErr := r.crawl(ctx, childURL, depth+1); childErr != nil {
				r.log.WithFields(logrus.Fields{
					"url":      childURL.String(),
					"category": utils.CategorizeError(childErr),
				}).Debugf("Branch failed: %v", childErr)
			}
		}(child)
	}
	children.Wait()

	return nil
}
