// Package httpx provides the shared HTTP client used by the registry
// client and the tarball cache: connection pooling, a fixed User-Agent, and
// exponential-backoff retry on transient errors with no retry on 4xx.
package httpx

import (
	"net/http"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
)

// UserAgent is sent on every registry and tarball request (spec §4.6, §6).
const UserAgent = "pacquet-cli"

// BasicClient is the minimal client surface callers in this module depend
// on, so registry/tarball code can be exercised against a fake in tests.
type BasicClient interface {
	Do(*http.Request) (*http.Response, error)
}

// WithUserAgent decorates a BasicClient, stamping every outgoing request.
type WithUserAgent struct {
	BasicClient
	UserAgent string
}

// Do sets the User-Agent header before delegating.
func (c *WithUserAgent) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.UserAgent)
	return c.BasicClient.Do(req)
}

var _ BasicClient = &WithUserAgent{}

// NewClient builds the retrying HTTP client shared by the registry client
// and the tarball cache: up to 3 retries (4 attempts in all) with exponential backoff on
// transient errors (connection failures, 5xx, 429), no retry on other 4xx
// responses, and pooled keep-alive connections.
func NewClient() BasicClient {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 3 * time.Second
	rc.Logger = nil
	rc.HTTPClient.Timeout = 60 * time.Second
	rc.HTTPClient.Transport = &http.Transport{
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   64,
		MaxConnsPerHost:       64,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	std := rc.StandardClient()
	return &WithUserAgent{BasicClient: std, UserAgent: UserAgent}
}
