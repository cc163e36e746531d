// Package models provides domain models for the quote watcher.
package models

import (
	"time"
)

// Instrument is a tracked market entity with a quote page.
type Instrument struct {
	ID        int64     `json:"id"`
	Code      int64     `json:"code"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// Crawl holds the outcome of one fetch-extract-evaluate run.
type Crawl struct {
	Instrument Instrument       `json:"instrument"`
	Quote      int64            `json:"current_amount"`
	Triggered  []TriggeredAlert `json:"crawling_responses"`
	Duration   time.Duration    `json:"duration"`
}
