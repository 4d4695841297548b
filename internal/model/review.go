package model

import "time"

// Review is a raw audience or critic review as returned by the reviews
// provider.  Rating is on a 0–10 scale and nil when the author gave none.
// The publication is not a structured field; it is inferred from the
// author, content or URL.
type Review struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	Rating    *float64  `json:"rating"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// CuratedReview is a Review attributed to a recognized publication with
// its content trimmed to at most two sentences.
type CuratedReview struct {
	Review
	Publication string `json:"publication"`
}

// Awards carries the free-text awards summary for a film.  Error is set
// when the provider could not answer; Summary is nil in that case.
type Awards struct {
	Summary *string `json:"awards"`
	Error   string  `json:"error,omitempty"`
}
