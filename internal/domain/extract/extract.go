// Package extract derives animal sightings from free-text scene
// descriptions using a fixed species vocabulary.
package extract

import (
	"strings"

	"github.com/okian/wildwatch/internal/domain/model"
)

// vocabulary is matched in this order and output keeps it.
var vocabulary = []string{
	"elephant", "lion", "tiger", "bear", "deer", "wolf", "fox", "eagle", "hawk",
	"buffalo", "zebra", "giraffe", "hippo", "crocodile", "alligator", "snake",
	"bird", "owl", "heron", "crane", "duck", "goose", "swan", "pelican",
	"monkey", "gorilla", "chimpanzee", "baboon", "leopard", "cheetah", "jaguar",
	"rhino", "wildebeest", "antelope", "gazelle", "impala", "warthog", "boar",
	"rabbit", "hare", "squirrel", "raccoon", "skunk", "beaver", "otter", "seal",
	"dolphin", "whale", "shark", "fish", "turtle", "frog", "lizard", "coyote",
	"moose", "elk", "caribou", "bison", "horse", "cow", "pig", "cat", "dog",
	"chicken", "turkey", "pheasant", "quail", "grouse",
}

// Phrases that set the tier for every matched term in the text.
const (
	phraseHighConfidence = "high confidence"
	phraseLowConfidence  = "low confidence"
	phraseMightBe        = "might be"
)

// Vocabulary returns a copy of the recognised species terms in match order.
func Vocabulary() []string {
	out := make([]string, len(vocabulary))
	copy(out, vocabulary)
	return out
}

// Extract returns one sighting per vocabulary term found as a substring of
// the lower-cased explanation. Matching is plain substring search, so
// "category" yields a Cat sighting. The result is never nil.
func Extract(explanation string) []model.AnimalSighting {
	text := strings.ToLower(explanation)
	out := make([]model.AnimalSighting, 0)
	if text == "" {
		return out
	}

	globalHigh := strings.Contains(text, phraseHighConfidence)
	globalLow := strings.Contains(text, phraseMightBe) || strings.Contains(text, phraseLowConfidence)

	for _, term := range vocabulary {
		if !strings.Contains(text, term) {
			continue
		}
		out = append(out, model.AnimalSighting{
			Name:       displayName(term),
			Confidence: tier(text, term, globalHigh, globalLow),
		})
	}
	return out
}

// tier checks high first; high wins over low.
func tier(text, term string, globalHigh, globalLow bool) model.Confidence {
	switch {
	case globalHigh,
		strings.Contains(text, "definitely "+term),
		strings.Contains(text, "clearly "+term):
		return model.ConfidenceHigh
	case globalLow, strings.Contains(text, "possibly "+term):
		return model.ConfidenceLow
	default:
		return model.ConfidenceMedium
	}
}

func displayName(term string) string {
	return strings.ToUpper(term[:1]) + term[1:]
}
