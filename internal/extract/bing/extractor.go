// Package bing extracts pronunciation fields from Bing dictionary pages.
package bing

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/dictcrawler/internal/dict"
)

const (
	headwordSelector   = "#headword > h1 > strong"
	usPhoneticSelector = ".hd_prUS"
	ukPhoneticSelector = ".hd_pr"
	usAudioSelector    = "div.hd_tf_lh > div > div:nth-child(2) > a"
	ukAudioSelector    = "div.hd_tf_lh > div > div:nth-child(4) > a"
)

var (
	bracketed = regexp.MustCompile(`\[.+\]`)
	mp3URL    = regexp.MustCompile(`(?i)https.+\.mp3`)
)

// Extractor implements dict.FieldExtractor for cn.bing.com/dict pages.
type Extractor struct{}

// New returns an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract parses page and returns whatever fields it finds.
func (e *Extractor) Extract(word dict.Word, page []byte) (dict.LookupResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return dict.LookupResult{}, fmt.Errorf("parse page for %s: %w", word, err)
	}
	return dict.LookupResult{
		SourceWord: word,
		Headword:   dict.StringPtr(strings.TrimSpace(doc.Find(headwordSelector).Text())),
		USPhonetic: firstMatch(bracketed, doc.Find(usPhoneticSelector).Text()),
		UKPhonetic: firstMatch(bracketed, doc.Find(ukPhoneticSelector).Text()),
		USAudioURL: audioURL(doc, usAudioSelector),
		UKAudioURL: audioURL(doc, ukAudioSelector),
	}, nil
}

func audioURL(doc *goquery.Document, selector string) *string {
	onclick, ok := doc.Find(selector).First().Attr("onclick")
	if !ok {
		return nil
	}
	return firstMatch(mp3URL, onclick)
}

func firstMatch(re *regexp.Regexp, text string) *string {
	return dict.StringPtr(re.FindString(text))
}
