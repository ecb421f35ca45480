package models

// Response statuses
const (
	StatusSuccess  = "success"
	StatusFallback = "fallback"
	StatusError    = "error"
)

// RecommendRequest is the request for a recommendation
type RecommendRequest struct {
	Query string `json:"query" validate:"required"`
}

// BookResult is one recommended book. PublishedYear, AverageRating and NumPages
// hold a number or "N/A". Categories and NumPages are only set on ranked results.
type BookResult struct {
	Title         string    `json:"title"`
	Authors       string    `json:"authors"`
	Description   string    `json:"description"`
	Thumbnail     string    `json:"thumbnail"`
	PublishedYear any       `json:"published_year"`
	AverageRating any       `json:"average_rating"`
	Score         float64   `json:"score"`
	Categories    *[]string `json:"categories,omitempty"`
	NumPages      any       `json:"num_pages,omitempty"`
}

// Envelope wraps every list response and every error
type Envelope struct {
	Results []BookResult `json:"results"`
	Message string       `json:"message"`
	Status  string       `json:"status"`
}

// ErrorEnvelope builds an error response with an empty result list
func ErrorEnvelope(message string) Envelope {
	return Envelope{
		Results: []BookResult{},
		Message: message,
		Status:  StatusError,
	}
}

// Suggestion is one autocomplete entry
type Suggestion struct {
	Title         string `json:"title"`
	PublishedYear any    `json:"published_year"`
}

// SuggestionsResponse is the response for title suggestions
type SuggestionsResponse struct {
	Results []Suggestion `json:"results"`
}
