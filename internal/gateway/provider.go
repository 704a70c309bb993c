// Package gateway provides clients for the source-control hosting providers,
// abstracting away their pagination, sub-resource and rate-limit differences.
package gateway

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/naka-gawa/repo-profiles/internal/domain"
)

// Provider defines the behavior every hosting provider client implements.
type Provider interface {
	// Name identifies the provider in logs and errors.
	Name() string
	// FetchRepositories returns every repository visible for profile.
	// It fails with domain.ErrResourceNotFound when the profile does not exist
	// and with a *domain.RateLimitError when the request budget is exhausted.
	FetchRepositories(ctx context.Context, profile string) ([]domain.Repository, error)
	// ClassifyRateLimit inspects one response and returns a *domain.RateLimitError
	// if it signals exhaustion, nil otherwise. It runs on every response the client receives.
	ClassifyRateLimit(resp *http.Response) error
	// Close releases the client's idle connections.
	Close()
}

// RateLimitClassifier is the signature of Provider.ClassifyRateLimit.
type RateLimitClassifier func(resp *http.Response) error

// classifyingTransport runs every response through a RateLimitClassifier before
// handing it back, so a rate limit fails the request that observed it.
type classifyingTransport struct {
	base     http.RoundTripper
	classify RateLimitClassifier
}

func (t *classifyingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if rlErr := t.classify(resp); rlErr != nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, rlErr
	}
	return resp, nil
}

// newPool returns a connection pool owned by a single provider client.
func newPool() *http.Transport {
	return http.DefaultTransport.(*http.Transport).Clone()
}

// newClassifyingClient builds an http.Client on pool whose responses are classified.
// timeout bounds every individual request; zero disables it.
func newClassifyingClient(pool *http.Transport, classify RateLimitClassifier, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &classifyingTransport{base: pool, classify: classify},
	}
}
