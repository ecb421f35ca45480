package corpus

import (
	"strconv"
	"strings"
)

// Sentinels substituted for missing fields when a record is read.
const (
	UnknownTitle        = "Unknown"
	UnknownAuthors      = "-"
	MissingThumbnail    = "cover-not-found.jpg"
	NotAvailable        = "N/A"
	MissingDescription  = "No description available."
	descriptionMaxRunes = 200
	descriptionEllipsis = "..."
)

// BookRecord is one row of the catalog as it appears in the source data.
// Nil fields were missing in the source.
type BookRecord struct {
	Title         *string
	Authors       *string
	Description   *string
	Thumbnail     *string
	PublishedYear *float64
	AverageRating *float64
	Categories    []string
	NumPages      *float64
}

// DisplayTitle returns the title or UnknownTitle.
func (b BookRecord) DisplayTitle() string {
	return stringOr(b.Title, UnknownTitle)
}

// DisplayAuthors returns the authors or UnknownAuthors.
func (b BookRecord) DisplayAuthors() string {
	return stringOr(b.Authors, UnknownAuthors)
}

// DisplayThumbnail returns the thumbnail URL or MissingThumbnail.
func (b BookRecord) DisplayThumbnail() string {
	return stringOr(b.Thumbnail, MissingThumbnail)
}

// DisplayDescription returns the description cut to 200 characters plus an
// ellipsis when longer, or MissingDescription when absent.
func (b BookRecord) DisplayDescription() string {
	if b.Description == nil || *b.Description == "" {
		return MissingDescription
	}
	return Truncate(*b.Description, descriptionMaxRunes)
}

// DisplayPublishedYear returns the year as a number, or NotAvailable.
func (b BookRecord) DisplayPublishedYear() any {
	return numberOr(b.PublishedYear)
}

// DisplayAverageRating returns the rating as a number, or NotAvailable.
func (b BookRecord) DisplayAverageRating() any {
	return numberOr(b.AverageRating)
}

// DisplayNumPages returns the page count as a number, or NotAvailable.
func (b BookRecord) DisplayNumPages() any {
	return numberOr(b.NumPages)
}

// DisplayCategories never returns nil so it encodes as [].
func (b BookRecord) DisplayCategories() []string {
	if b.Categories == nil {
		return []string{}
	}
	out := make([]string, len(b.Categories))
	copy(out, b.Categories)
	return out
}

// YearKey identifies the published year for de-duplication; missing years compare equal.
func (b BookRecord) YearKey() string {
	if b.PublishedYear == nil {
		return ""
	}
	return strconv.FormatFloat(*b.PublishedYear, 'g', -1, 64)
}

// Truncate cuts s to max runes and appends an ellipsis when it was longer.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	sb.WriteString(string(runes[:max]))
	sb.WriteString(descriptionEllipsis)
	return sb.String()
}

func stringOr(p *string, def string) string {
	if p == nil || *p == "" {
		return def
	}
	return *p
}

func numberOr(p *float64) any {
	if p == nil {
		return NotAvailable
	}
	return *p
}
