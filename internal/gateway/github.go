package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/naka-gawa/repo-profiles/internal/domain"
)

const (
	githubProviderName = "github"
	githubListPageSize = 100

	headerRateLimitRemaining = "X-RateLimit-Remaining"
	headerRateLimitReset     = "X-RateLimit-Reset"
)

// GitHubOptions configures the GitHub clients.
type GitHubOptions struct {
	// BaseURL is the REST API root, e.g. https://api.github.com.
	BaseURL string
	// GraphQLURL is the GraphQL endpoint, used only by GitHubGraphQLGateway.
	GraphQLURL string
	// Token is sent as a bearer token when set.
	Token          string
	RequestTimeout time.Duration
	// Concurrency bounds the secondary requests in flight for one profile.
	Concurrency int
	// SecondaryLimitMaxWait caps how long a single secondary rate limit is waited out.
	SecondaryLimitMaxWait time.Duration
}

// GitHubGateway is the REST implementation of Provider for GitHub.
type GitHubGateway struct {
	restClient  *github.Client
	pool        *http.Transport
	concurrency int
	logger      *zap.Logger
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(opts GitHubOptions, logger *zap.Logger) (*GitHubGateway, error) {
	pool := newPool()
	httpClient, err := newGitHubHTTPClient(pool, opts, logger)
	if err != nil {
		return nil, err
	}

	restClient := github.NewClient(httpClient)
	if opts.BaseURL != "" {
		baseURL, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid github base url: %w", err)
		}
		restClient.BaseURL = baseURL
	}

	return &GitHubGateway{
		restClient:  restClient,
		pool:        pool,
		concurrency: max(opts.Concurrency, 1),
		logger:      logger,
	}, nil
}

// newGitHubHTTPClient layers bearer auth and the secondary rate limit waiter over the
// classifying transport, so classification sees every raw response first.
func newGitHubHTTPClient(pool *http.Transport, opts GitHubOptions, logger *zap.Logger) (*http.Client, error) {
	classifying := &classifyingTransport{base: pool, classify: ClassifyGitHubRateLimit}

	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(classifying,
		github_ratelimit.WithSingleSleepLimit(opts.SecondaryLimitMaxWait, func(cbContext *github_ratelimit.CallbackContext) {
			fields := []zap.Field{zap.Duration("max_wait", opts.SecondaryLimitMaxWait)}
			if cbContext != nil && cbContext.Request != nil {
				fields = append(fields, zap.String("path", cbContext.Request.URL.Path))
			}
			logger.Warn("github secondary rate limit exceeds max wait", fields...)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}

	var transport http.RoundTripper = rateLimitWaiter
	if opts.Token != "" {
		transport = &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}),
		}
	}
	return &http.Client{Timeout: opts.RequestTimeout, Transport: transport}, nil
}

func (g *GitHubGateway) Name() string {
	return githubProviderName
}

// ClassifyRateLimit reports a rate limit when an erroring response says no requests remain.
func (g *GitHubGateway) ClassifyRateLimit(resp *http.Response) error {
	return ClassifyGitHubRateLimit(resp)
}

// ClassifyGitHubRateLimit is the GitHub rate limit rule shared by the REST and GraphQL clients.
// A missing or malformed remaining header is treated as not rate limited.
func ClassifyGitHubRateLimit(resp *http.Response) error {
	if resp == nil || resp.StatusCode < http.StatusBadRequest {
		return nil
	}
	remaining, err := strconv.Atoi(strings.TrimSpace(resp.Header.Get(headerRateLimitRemaining)))
	if err != nil || remaining != 0 {
		return nil
	}
	rlErr := &domain.RateLimitError{Provider: githubProviderName}
	if reset, err := strconv.ParseInt(resp.Header.Get(headerRateLimitReset), 10, 64); err == nil {
		rlErr.Reset = time.Unix(reset, 0)
	}
	return rlErr
}

func (g *GitHubGateway) Close() {
	g.pool.CloseIdleConnections()
}

// FetchRepositories lists the profile's repositories and then fetches the topics and
// languages of every repository in one concurrent batch.
func (g *GitHubGateway) FetchRepositories(ctx context.Context, profile string) ([]domain.Repository, error) {
	g.logger.Debug("fetching github repositories", zap.String("profile", profile))

	var listed []*github.Repository
	opts := &github.RepositoryListByUserOptions{ListOptions: github.ListOptions{PerPage: githubListPageSize}}
	for {
		batch, resp, err := g.restClient.Repositories.ListByUser(ctx, profile, opts)
		if err != nil {
			if resp != nil && resp.StatusCode == http.StatusNotFound {
				return nil, fmt.Errorf("github profile %q: %w", profile, domain.ErrResourceNotFound)
			}
			return nil, translateGitHubError(fmt.Errorf("failed to list github repositories: %w", err))
		}
		listed = append(listed, batch...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	topics := make([][]string, len(listed))
	languages := make([]string, len(listed))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)
	for i, repo := range listed {
		owner := repo.GetOwner().GetLogin()
		if owner == "" {
			owner = profile
		}
		name := repo.GetName()

		eg.Go(func() error {
			t, _, err := g.restClient.Repositories.ListAllTopics(egCtx, owner, name)
			if err != nil {
				return translateGitHubError(fmt.Errorf("failed to list topics of %s/%s: %w", owner, name, err))
			}
			topics[i] = t
			return nil
		})
		eg.Go(func() error {
			l, _, err := g.restClient.Repositories.ListLanguages(egCtx, owner, name)
			if err != nil {
				return translateGitHubError(fmt.Errorf("failed to list languages of %s/%s: %w", owner, name, err))
			}
			languages[i] = primaryLanguage(l)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	repos := make([]domain.Repository, 0, len(listed))
	for i, repo := range listed {
		r, err := domain.NewRepository(repo.GetName(), repo.GetFork(), languages[i], topics[i], repo.GetWatchers())
		if err != nil {
			return nil, err
		}
		repos = append(repos, r)
	}

	g.logger.Debug("fetched github repositories", zap.String("profile", profile), zap.Int("count", len(repos)))
	return repos, nil
}

// translateGitHubError maps go-github's own rate limit errors onto the domain error.
// Errors raised by the classifying transport already carry the domain type.
func translateGitHubError(err error) error {
	var rlErr *domain.RateLimitError
	if errors.As(err, &rlErr) {
		return err
	}

	var primary *github.RateLimitError
	if errors.As(err, &primary) {
		return fmt.Errorf("%v: %w", err, &domain.RateLimitError{Provider: githubProviderName, Reset: primary.Rate.Reset.Time})
	}

	var secondary *github.AbuseRateLimitError
	if errors.As(err, &secondary) {
		limitErr := &domain.RateLimitError{Provider: githubProviderName}
		if secondary.RetryAfter != nil {
			limitErr.Reset = time.Now().Add(*secondary.RetryAfter)
		}
		return fmt.Errorf("%v: %w", err, limitErr)
	}

	return err
}

// primaryLanguage picks the language with the most bytes. Ties go to the lexically
// smallest name so the result does not depend on map order. Empty input yields "".
func primaryLanguage(bytesByLanguage map[string]int) string {
	names := make([]string, 0, len(bytesByLanguage))
	for name := range bytesByLanguage {
		names = append(names, name)
	}
	sort.Strings(names)

	best, bestBytes := "", -1
	for _, name := range names {
		if b := bytesByLanguage[name]; b > bestBytes {
			best, bestBytes = name, b
		}
	}
	return best
}
