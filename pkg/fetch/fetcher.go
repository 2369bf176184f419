package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"crawly/pkg/utils"
)

// Bot-mitigation layers flag challenge responses with this header; the
// crawler skips such URLs without marking them visited.
const (
	MitigationHeader    = "cf-mitigated"
	MitigationChallenge = "challenge"
)

// Fetcher performs HTTP GETs with the shared client. A fetch is attempted
// exactly once: a failed URL stays failed for the rest of the run.
type Fetcher struct {
	client    *http.Client
	userAgent string
	log       *logrus.Entry
}

// NewFetcher creates a Fetcher that identifies itself as userAgent.
func NewFetcher(client *http.Client, userAgent string, log *logrus.Entry) *Fetcher {
	return &Fetcher{
		client:    client,
		userAgent: userAgent,
		log:       log,
	}
}

// Fetch issues a GET for rawURL. Transport-level failures are wrapped with
// utils.ErrTransport; HTTP status codes are not interpreted here — callers
// inspect the response themselves. On success the response body is open
// and must be closed by the caller.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", utils.ErrRequestCreation, rawURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		f.log.WithField("url", rawURL).Debugf("Fetch failed: %v", err)
		return nil, fmt.Errorf("%w: GET %q: %w", utils.ErrTransport, rawURL, err)
	}

	f.log.WithFields(logrus.Fields{"url": rawURL, "status_code": resp.StatusCode}).Debug("Fetched")
	return resp, nil
}

// IsMitigated reports whether resp carries a bot-mitigation challenge
// signal.
func IsMitigated(resp *http.Response) bool {
	return resp.Header.Get(MitigationHeader) == MitigationChallenge
}
