package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRepository(t *testing.T, name string, forked bool, language string, topics []string, watchers int) Repository {
	t.Helper()
	r, err := NewRepository(name, forked, language, topics, watchers)
	require.NoError(t, err)
	return r
}

func TestAggregateProfile(t *testing.T) {
	testCases := []struct {
		name         string
		repos        func(t *testing.T) []Repository
		expectedJSON string
	}{
		{
			name:         "empty list",
			repos:        func(t *testing.T) []Repository { return nil },
			expectedJSON: `{"repositories":{"owned":0,"forked":0,"topics":[]},"watchers":0,"languages":{}}`,
		},
		{
			name: "mixed providers",
			repos: func(t *testing.T) []Repository {
				return []Repository{
					// github-shaped records
					mustRepository(t, "repo1", false, "C", []string{"AI"}, 0),
					mustRepository(t, "repo2", true, "", nil, 2),
					// bitbucket-shaped records never carry topics
					mustRepository(t, "repo1", false, "python", nil, 2),
					mustRepository(t, "repo2", true, "", nil, 0),
				}
			},
			expectedJSON: `{"repositories":{"forked":2,"owned":2,"topics":["AI"]},"watchers":4,"languages":{"python":1,"c":1,"other":2}}`,
		},
		{
			name: "topics collapse across repositories",
			repos: func(t *testing.T) []Repository {
				return []Repository{
					mustRepository(t, "a", false, "Go", []string{"cli", "infra"}, 1),
					mustRepository(t, "b", false, "go", []string{"infra", "web"}, 5),
				}
			},
			expectedJSON: `{"repositories":{"forked":0,"owned":2,"topics":["cli","infra","web"]},"watchers":6,"languages":{"go":2}}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repos := tc.repos(t)
			profile := AggregateProfile(repos)

			data, err := json.Marshal(profile)
			require.NoError(t, err)
			assert.JSONEq(t, tc.expectedJSON, string(data))

			assert.Equal(t, len(repos), profile.Repositories.Owned+profile.Repositories.Forked)
			total := 0
			for _, n := range profile.Languages {
				total += n
			}
			assert.Equal(t, len(repos), total)
		})
	}
}
