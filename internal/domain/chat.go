package domain

import (
	"strings"
	"time"
)

// TurnRole identifies which side of the conversation produced a turn.
type TurnRole string

const (
	TurnRoleUser      TurnRole = "user"
	TurnRoleAssistant TurnRole = "assistant"
)

const (
	titleMaxLen    = 50
	snippetMaxLen  = 200
	defaultTitle   = "Reference"
	defaultSource  = "#"
	missingContent = "No content available"
)

// Source is the snapshot of one retrieved passage cited by an assistant turn.
type Source struct {
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Snippet    string  `json:"snippet,omitempty"`
	Similarity float64 `json:"similarity"`
}

// Turn is a single message within a conversation. Assistant turns carry the
// cited sources and the metering data for the exchange they complete.
type Turn struct {
	ID              string    `json:"id"`
	Role            TurnRole  `json:"type"`
	Content         string    `json:"content"`
	Voice           bool      `json:"voice"`
	Sources         []Source  `json:"sources,omitempty"`
	TokensUsed      int       `json:"tokensUsed"`
	CreditsDeducted int       `json:"creditsDeducted"`
	Timestamp       time.Time `json:"timestamp"`
}

// Chat is an append-only conversation owned by a single user. Turns are
// strictly ordered and always appended as a user/assistant pair.
type Chat struct {
	ID            string    `json:"id"`
	UserID        string    `json:"-"`
	Title         string    `json:"title"`
	Messages      []Turn    `json:"messages,omitempty"`
	IsDeleted     bool      `json:"-"`
	LastMessageAt time.Time `json:"lastMessageAt"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"-"`
}

// ChatTitle derives a conversation title from its first query.
func ChatTitle(query string) string {
	runes := []rune(strings.TrimSpace(query))
	if len(runes) <= titleMaxLen {
		return string(runes)
	}
	return string(runes[:titleMaxLen]) + "..."
}

// SourcesFromPassages snapshots retrieved passages into turn citations.
func SourcesFromPassages(passages []Passage) []Source {
	sources := make([]Source, 0, len(passages))
	for _, p := range passages {
		snippet := p.Content
		if snippet == "" {
			snippet = missingContent
		} else if r := []rune(snippet); len(r) > snippetMaxLen {
			snippet = string(r[:snippetMaxLen])
		}
		title := p.Title
		if title == "" {
			title = defaultTitle
		}
		url := p.URL
		if url == "" {
			url = defaultSource
		}
		sources = append(sources, Source{
			Title:      title,
			URL:        url,
			Snippet:    snippet,
			Similarity: p.Similarity,
		})
	}
	return sources
}
