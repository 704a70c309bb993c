package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/repo-profiles/internal/domain"
)

const (
	bitbucketProviderName = "bitbucket"
	bitbucketAPIBase      = "https://api.bitbucket.org/2.0"
)

// BitbucketOptions configures the Bitbucket client.
type BitbucketOptions struct {
	// BaseURL is the API root including the version segment, e.g. https://api.bitbucket.org/2.0.
	BaseURL string
	// Username and Token enable basic auth when both are set.
	Username       string
	Token          string
	RequestTimeout time.Duration
	// Concurrency bounds the watcher listings in flight for one profile.
	Concurrency int
}

// BitbucketGateway implements Provider for Bitbucket Cloud.
type BitbucketGateway struct {
	baseURL     string
	username    string
	token       string
	client      *http.Client
	pool        *http.Transport
	concurrency int
	logger      *zap.Logger
}

// NewBitbucketGateway creates a new Bitbucket provider. If BaseURL is empty,
// the default Bitbucket Cloud API endpoint is used.
func NewBitbucketGateway(opts BitbucketOptions, logger *zap.Logger) *BitbucketGateway {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = bitbucketAPIBase
	}
	b := &BitbucketGateway{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		username:    opts.Username,
		token:       opts.Token,
		pool:        newPool(),
		concurrency: max(opts.Concurrency, 1),
		logger:      logger,
	}
	b.client = newClassifyingClient(b.pool, b.ClassifyRateLimit, opts.RequestTimeout)
	return b
}

type bitbucketRepo struct {
	Slug     string          `json:"slug"`
	Name     string          `json:"name"`
	Language string          `json:"language"`
	Parent   json.RawMessage `json:"parent"`
}

// forked reports whether the listing carried a non-null parent.
func (r bitbucketRepo) forked() bool {
	return len(r.Parent) > 0 && string(r.Parent) != "null"
}

// statusError is returned for responses outside the 2xx range.
type statusError struct {
	URL        string
	StatusCode int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("bitbucket API returned status %d for %s", e.StatusCode, e.URL)
}

func (b *BitbucketGateway) Name() string {
	return bitbucketProviderName
}

// ClassifyRateLimit never reports a rate limit: Bitbucket exposes no reliable signal for one.
func (b *BitbucketGateway) ClassifyRateLimit(resp *http.Response) error {
	return nil
}

func (b *BitbucketGateway) Close() {
	b.pool.CloseIdleConnections()
}

// FetchRepositories walks the repository listing to completion and then counts the
// watchers of every repository concurrently.
func (b *BitbucketGateway) FetchRepositories(ctx context.Context, profile string) ([]domain.Repository, error) {
	b.logger.Debug("fetching bitbucket repositories", zap.String("profile", profile))

	first := fmt.Sprintf("%s/repositories/%s/", b.baseURL, url.PathEscape(profile))
	listed, err := paginate(ctx, first, func(ctx context.Context, pageURL string) (*page[bitbucketRepo], error) {
		p, err := getPage[bitbucketRepo](ctx, b, pageURL)
		var se *statusError
		if pageURL == first && errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("bitbucket profile %q: %w", profile, domain.ErrResourceNotFound)
		}
		return p, err
	})
	if err != nil {
		return nil, err
	}

	watchers := make([]int, len(listed))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(b.concurrency)
	for i, repo := range listed {
		eg.Go(func() error {
			n, err := b.countWatchers(egCtx, profile, repo.Slug)
			if err != nil {
				return fmt.Errorf("failed to count watchers of %s/%s: %w", profile, repo.Slug, err)
			}
			watchers[i] = n
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	repos := make([]domain.Repository, 0, len(listed))
	for i, repo := range listed {
		r, err := domain.NewRepository(repo.Slug, repo.forked(), repo.Language, nil, watchers[i])
		if err != nil {
			return nil, err
		}
		repos = append(repos, r)
	}

	b.logger.Debug("fetched bitbucket repositories", zap.String("profile", profile), zap.Int("count", len(repos)))
	return repos, nil
}

// countWatchers pages through a repository's watchers and returns how many there are.
func (b *BitbucketGateway) countWatchers(ctx context.Context, profile, slug string) (int, error) {
	first := fmt.Sprintf("%s/repositories/%s/%s/watchers", b.baseURL, url.PathEscape(profile), url.PathEscape(slug))
	values, err := paginate(ctx, first, func(ctx context.Context, pageURL string) (*page[json.RawMessage], error) {
		return getPage[json.RawMessage](ctx, b, pageURL)
	})
	if err != nil {
		return 0, err
	}
	return len(values), nil
}

func getPage[T any](ctx context.Context, b *BitbucketGateway, pageURL string) (*page[T], error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if b.username != "" && b.token != "" {
		req.SetBasicAuth(b.username, b.token)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bitbucket API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &statusError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	var p page[T]
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode bitbucket response: %w", err)
	}
	return &p, nil
}
