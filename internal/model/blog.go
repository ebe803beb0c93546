package model

import (
	"strings"
	"time"
)

// SchemaVersion identifies the canonical post shape: title and content are both
// language-keyed maps. Older revisions stored flat strings plus *Eng siblings.
const SchemaVersion = 2

// LocalizedText maps a language code (e.g. "pl", "en") to text in that language.
type LocalizedText map[string]string

// Get returns the text for lang, or "" when that language is absent.
func (t LocalizedText) Get(lang string) string {
	if t == nil {
		return ""
	}
	return t[lang]
}

// Clone returns a copy with blank entries dropped. A nil or all-blank map clones to an empty map.
func (t LocalizedText) Clone() LocalizedText {
	out := make(LocalizedText, len(t))
	for lang, text := range t {
		if strings.TrimSpace(text) == "" {
			continue
		}
		out[lang] = text
	}
	return out
}

// BlogPost is the only entity of the system.
// This is a pure domain model with no database-specific dependencies or tags.
type BlogPost struct {
	ID        string        `json:"id"`
	Title     LocalizedText `json:"title"`
	Content   LocalizedText `json:"content"`
	Image     *string       `json:"image"`
	Tags      []string      `json:"tags"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// NormalizeTags returns tags as a non-nil slice so that posts always serialize "tags": [].
func NormalizeTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// Languages names the language keys used for the primary text and its optional translation.
type Languages struct {
	Primary   string
	Secondary string
}
