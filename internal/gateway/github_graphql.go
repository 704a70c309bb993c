package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shurcooL/githubv4"
	"go.uber.org/zap"

	"github.com/naka-gawa/repo-profiles/internal/domain"
)

const (
	defaultGitHubGraphQLURL = "https://api.github.com/graphql"
	graphqlPageSize         = 50
)

// GitHubGraphQLGateway implements Provider for GitHub on top of the GraphQL API.
// Topics and languages arrive inline with each repository, so it only paginates.
type GitHubGraphQLGateway struct {
	graphqlClient *githubv4.Client
	pool          *http.Transport
	logger        *zap.Logger
}

type graphqlRepository struct {
	Name           githubv4.String
	IsFork         githubv4.Boolean
	StargazerCount githubv4.Int // the REST "watchers" field mirrors stargazers
	// Topics beyond the first 100 and languages beyond the first 100 are not fetched.
	RepositoryTopics struct {
		Nodes []struct {
			Topic struct {
				Name githubv4.String
			}
		}
	} `graphql:"repositoryTopics(first: 100)"`
	Languages struct {
		Edges []struct {
			Size githubv4.Int
			Node struct {
				Name githubv4.String
			}
		}
	} `graphql:"languages(first: 100)"`
}

// ownerRepositoriesQuery lists the repositories owned by a user or organization.
type ownerRepositoriesQuery struct {
	RepositoryOwner struct {
		Login        githubv4.String
		Repositories struct {
			PageInfo struct {
				HasNextPage bool
				EndCursor   githubv4.String
			}
			Nodes []graphqlRepository
		} `graphql:"repositories(first: $pageSize, after: $cursor, ownerAffiliations: OWNER)"`
	} `graphql:"repositoryOwner(login: $login)"`
}

// NewGitHubGraphQLGateway creates a GraphQL-backed GitHub provider sharing the REST client's
// transport stack.
func NewGitHubGraphQLGateway(opts GitHubOptions, logger *zap.Logger) (*GitHubGraphQLGateway, error) {
	pool := newPool()
	httpClient, err := newGitHubHTTPClient(pool, opts, logger)
	if err != nil {
		return nil, err
	}
	endpoint := opts.GraphQLURL
	if endpoint == "" {
		endpoint = defaultGitHubGraphQLURL
	}
	return &GitHubGraphQLGateway{
		graphqlClient: githubv4.NewEnterpriseClient(endpoint, httpClient),
		pool:          pool,
		logger:        logger,
	}, nil
}

func (g *GitHubGraphQLGateway) Name() string {
	return githubProviderName
}

func (g *GitHubGraphQLGateway) ClassifyRateLimit(resp *http.Response) error {
	return ClassifyGitHubRateLimit(resp)
}

func (g *GitHubGraphQLGateway) Close() {
	g.pool.CloseIdleConnections()
}

func (g *GitHubGraphQLGateway) FetchRepositories(ctx context.Context, profile string) ([]domain.Repository, error) {
	g.logger.Debug("fetching github repositories via graphql", zap.String("profile", profile))

	variables := map[string]interface{}{
		"login":    githubv4.String(profile),
		"pageSize": githubv4.Int(graphqlPageSize),
		"cursor":   (*githubv4.String)(nil),
	}

	var repos []domain.Repository
	for {
		var q ownerRepositoriesQuery
		if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
			return nil, fmt.Errorf("failed to execute GraphQL query for repositories: %w", err)
		}
		if q.RepositoryOwner.Login == "" {
			return nil, fmt.Errorf("github profile %q: %w", profile, domain.ErrResourceNotFound)
		}

		for _, node := range q.RepositoryOwner.Repositories.Nodes {
			r, err := node.toDomain()
			if err != nil {
				return nil, err
			}
			repos = append(repos, r)
		}

		if !q.RepositoryOwner.Repositories.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(q.RepositoryOwner.Repositories.PageInfo.EndCursor)
		g.logger.Debug("fetching next page of github repositories", zap.String("profile", profile))
	}

	g.logger.Debug("fetched github repositories via graphql", zap.String("profile", profile), zap.Int("count", len(repos)))
	return repos, nil
}

func (n graphqlRepository) toDomain() (domain.Repository, error) {
	topics := make([]string, 0, len(n.RepositoryTopics.Nodes))
	for _, t := range n.RepositoryTopics.Nodes {
		topics = append(topics, string(t.Topic.Name))
	}
	sizes := make(map[string]int, len(n.Languages.Edges))
	for _, e := range n.Languages.Edges {
		sizes[string(e.Node.Name)] = int(e.Size)
	}
	return domain.NewRepository(string(n.Name), bool(n.IsFork), primaryLanguage(sizes), topics, int(n.StargazerCount))
}
