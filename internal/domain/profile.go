package domain

// Repositories summarizes repository ownership and topics for a profile.
type Repositories struct {
	Owned  int      `json:"owned"`
	Forked int      `json:"forked"`
	Topics TopicSet `json:"topics"`
}

// Profile is the aggregated summary returned for one account.
type Profile struct {
	Repositories Repositories   `json:"repositories"`
	Watchers     int            `json:"watchers"`
	Languages    map[string]int `json:"languages"`
}

// AggregateProfile folds repositories from any number of providers into a Profile.
// It is total: an empty list yields zero counts and empty collections.
func AggregateProfile(repos []Repository) *Profile {
	p := &Profile{
		Repositories: Repositories{Topics: NewTopicSet()},
		Languages:    make(map[string]int),
	}
	for _, r := range repos {
		if r.forked {
			p.Repositories.Forked++
		} else {
			p.Repositories.Owned++
		}
		p.Watchers += r.watchers
		p.Languages[r.language]++
		p.Repositories.Topics.Union(r.topics)
	}
	return p
}
