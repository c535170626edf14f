package model

import "time"

// UrlMapping represents a shortened URL entry in the system.
// Code and LongURL are immutable after creation; only Clicks changes,
// and only through the repository's atomic increment.
type UrlMapping struct {
	Code      string    `json:"code" db:"code"`
	LongURL   string    `json:"longUrl" db:"long_url"`
	Clicks    int64     `json:"clicks" db:"clicks"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// ShortenRequest is the body of POST /api/url/shorten.
type ShortenRequest struct {
	LongURL string `json:"longUrl" binding:"required"`
}

// MappingResponse is the wire form of a mapping, with the public short URL
// resolved against the service base address.
type MappingResponse struct {
	Code      string    `json:"code"`
	ShortURL  string    `json:"shortUrl"`
	LongURL   string    `json:"longUrl"`
	Clicks    int64     `json:"clicks"`
	CreatedAt time.Time `json:"createdAt"`
}
