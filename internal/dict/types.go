package dict

import (
	"fmt"
	"strings"
)

// Word is a trimmed, non-empty dictionary lookup key.
type Word string

// Lang identifies an audio pronunciation variant.
type Lang string

// Supported pronunciation variants.
const (
	LangUS Lang = "us"
	LangUK Lang = "uk"
)

// NormalizeWord trims raw input and reports whether anything usable remains.
func NormalizeWord(raw string) (Word, bool) {
	w := strings.TrimSpace(raw)
	if w == "" {
		return "", false
	}
	return Word(w), true
}

// LookupResult is the possibly partial outcome of fetching and parsing one
// word's page. Nil fields were not found on the page.
type LookupResult struct {
	SourceWord Word
	Headword   *string
	USPhonetic *string
	UKPhonetic *string
	USAudioURL *string
	UKAudioURL *string
}

// Empty reports whether none of the pronunciation fields were extracted.
// The headword alone does not count.
func (r LookupResult) Empty() bool {
	return r.USPhonetic == nil && r.UKPhonetic == nil && r.USAudioURL == nil && r.UKAudioURL == nil
}

// AudioURL returns the audio URL for lang, or nil when absent.
func (r LookupResult) AudioURL(lang Lang) *string {
	switch lang {
	case LangUS:
		return r.USAudioURL
	case LangUK:
		return r.UKAudioURL
	default:
		return nil
	}
}

// Record returns the persisted form of the result.
func (r LookupResult) Record() Record {
	return Record{
		Word:       r.SourceWord,
		Headword:   r.Headword,
		USPhonetic: r.USPhonetic,
		UKPhonetic: r.UKPhonetic,
		USAudioURL: r.USAudioURL,
		UKAudioURL: r.UKAudioURL,
	}
}

// Record is one row of the dict table. Nil fields are stored as NULL.
type Record struct {
	Word       Word    `json:"word"`
	Headword   *string `json:"headword"`
	USPhonetic *string `json:"us_phonetic"`
	UKPhonetic *string `json:"uk_phonetic"`
	USAudioURL *string `json:"us_audio_url"`
	UKAudioURL *string `json:"uk_audio_url"`
}

// AudioPath is the storage key of a word's audio file, relative to the
// configured audio root.
func AudioPath(word Word, lang Lang) string {
	return fmt.Sprintf("%s/%s.mp3", lang, word)
}

// StringPtr returns nil for an empty string and a pointer to s otherwise.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
