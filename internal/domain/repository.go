// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// OtherLanguage is the language assigned to repositories for which the provider reports none.
const OtherLanguage = "other"

// TopicSet is a set of repository topics.
type TopicSet map[string]struct{}

// NewTopicSet returns a set holding the given topics, duplicates collapsed.
func NewTopicSet(topics ...string) TopicSet {
	s := make(TopicSet, len(topics))
	for _, t := range topics {
		s.Add(t)
	}
	return s
}

func (s TopicSet) Add(topic string) {
	s[topic] = struct{}{}
}

// Union adds every topic of other to s.
func (s TopicSet) Union(other TopicSet) {
	for t := range other {
		s.Add(t)
	}
}

func (s TopicSet) Len() int {
	return len(s)
}

// Sorted returns the topics in lexical order. It never returns nil.
func (s TopicSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON encodes the set as a sorted array so responses are deterministic.
func (s TopicSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *TopicSet) UnmarshalJSON(data []byte) error {
	var topics []string
	if err := json.Unmarshal(data, &topics); err != nil {
		return err
	}
	*s = NewTopicSet(topics...)
	return nil
}

// NormalizeLanguage lowercases a provider language and maps an empty one to OtherLanguage.
// Applying it to its own output is a no-op.
func NormalizeLanguage(language string) string {
	if language == "" {
		return OtherLanguage
	}
	return strings.ToLower(language)
}

// Repository is a single provider repository after its fields have been unified.
// It is immutable once constructed; use NewRepository to build one.
type Repository struct {
	name     string
	forked   bool
	language string
	topics   TopicSet
	watchers int
}

// NewRepository validates and normalizes a raw provider record.
// An empty language means the provider reported none.
func NewRepository(name string, forked bool, language string, topics []string, watchers int) (Repository, error) {
	if watchers < 0 {
		return Repository{}, fmt.Errorf("%w: %q has negative watcher count %d", ErrInvalidRepository, name, watchers)
	}
	return Repository{
		name:     name,
		forked:   forked,
		language: NormalizeLanguage(language),
		topics:   NewTopicSet(topics...),
		watchers: watchers,
	}, nil
}

func (r Repository) Name() string {
	return r.name
}

func (r Repository) Forked() bool {
	return r.forked
}

func (r Repository) Language() string {
	return r.language
}

// Topics returns a copy of the repository's topic set.
func (r Repository) Topics() TopicSet {
	out := make(TopicSet, len(r.topics))
	out.Union(r.topics)
	return out
}

func (r Repository) Watchers() int {
	return r.watchers
}
