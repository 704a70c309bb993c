package cmd

import (
	"go.uber.org/zap"

	"github.com/naka-gawa/repo-profiles/internal/config"
	"github.com/naka-gawa/repo-profiles/internal/gateway"
)

// newProviders builds one client per configured provider, GitHub first.
// The caller owns the clients and must Close them.
func newProviders(cfg *config.Config, l *zap.Logger) ([]gateway.Provider, error) {
	githubOpts := gateway.GitHubOptions{
		BaseURL:               cfg.GitHub.URL,
		GraphQLURL:            cfg.GitHub.GraphQLURL,
		Token:                 cfg.GitHub.Token,
		RequestTimeout:        cfg.Fetch.RequestTimeout,
		Concurrency:           cfg.Fetch.Concurrency,
		SecondaryLimitMaxWait: cfg.GitHub.SecondaryLimitMaxWait,
	}

	var github gateway.Provider
	var err error
	if cfg.GitHub.API == config.GitHubAPIGraphQL {
		github, err = gateway.NewGitHubGraphQLGateway(githubOpts, l)
	} else {
		github, err = gateway.NewGitHubGateway(githubOpts, l)
	}
	if err != nil {
		return nil, err
	}

	bitbucket := gateway.NewBitbucketGateway(gateway.BitbucketOptions{
		BaseURL:        cfg.Bitbucket.URL,
		Username:       cfg.Bitbucket.Username,
		Token:          cfg.Bitbucket.Token,
		RequestTimeout: cfg.Fetch.RequestTimeout,
		Concurrency:    cfg.Fetch.Concurrency,
	}, l)

	return []gateway.Provider{github, bitbucket}, nil
}

func closeProviders(providers []gateway.Provider) {
	for _, p := range providers {
		p.Close()
	}
}
