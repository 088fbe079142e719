// Package model contains domain models passed between layers.
package model

import "time"

// Confidence is the tier attached to a sighting.
type Confidence string

// Confidence tiers.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Valid reports whether c is one of the known tiers.
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

// AnimalSighting is one identified species in one scan.
// A nil Count means "at least one, count unknown".
type AnimalSighting struct {
	Name       string     `json:"name"`
	Confidence Confidence `json:"confidence"`
	Count      *int       `json:"count,omitempty"`
}

// Tally returns the number of animals this sighting contributes to
// statistics: Count when present and positive, otherwise 1.
func (s AnimalSighting) Tally() int {
	if s.Count != nil && *s.Count > 0 {
		return *s.Count
	}
	return 1
}

// DetectionRecord is one completed scan. Records are never mutated once
// created. JSON keys follow the persisted history layout.
type DetectionRecord struct {
	ID          string           `json:"id"`
	Timestamp   time.Time        `json:"timestamp"`
	SourceURL   string           `json:"youtubeUrl"`
	StreamTitle string           `json:"streamTitle"`
	Sightings   []AnimalSighting `json:"animals"`
	Triggered   bool             `json:"triggered"`
	Explanation string           `json:"explanation"`
	Frame       string           `json:"frameB64,omitempty"`
	Model       string           `json:"model"`
}

// StatsSnapshot is derived from the full history on demand.
type StatsSnapshot struct {
	Total        int            `json:"total"`
	AnimalCounts map[string]int `json:"animalCounts"`
}
