package models

import (
	"time"

	"github.com/editorial-cms/internal/content"
)

// Category is the editorial section a post belongs to
type Category string

const (
	CategoryFashion    Category = "Fashion"
	CategoryTechnology Category = "Technology"
	CategoryTravel     Category = "Travel"
	CategoryFood       Category = "Food"
	CategoryGeneral    Category = "General"
)

// ValidCategories defines allowed post categories
var ValidCategories = map[Category]bool{
	CategoryFashion:    true,
	CategoryTechnology: true,
	CategoryTravel:     true,
	CategoryFood:       true,
	CategoryGeneral:    true,
}

// ParseCategory reports whether s names a known category. Matching is exact.
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	return c, ValidCategories[c]
}

// CategoryOrGeneral returns the category named by s, or General
func CategoryOrGeneral(s string) Category {
	if c, ok := ParseCategory(s); ok {
		return c
	}
	return CategoryGeneral
}

// Post represents an article in the system
type Post struct {
	ID       string         `json:"id" db:"id"`
	Slug     string         `json:"slug" db:"slug"`
	Title    string         `json:"title" db:"title"`
	Content  content.Blocks `json:"content" db:"content"` // Stored as JSON in DB
	Author   string         `json:"author" db:"author"`
	Date     time.Time      `json:"date" db:"date"`
	Category Category       `json:"category" db:"category"`
	ImageURL string         `json:"imageUrl" db:"image_url"`
}

// Clone returns a copy that shares no block data with p
func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}
	c := *p
	c.Content = p.Content.Clone()
	return &c
}

// PostInput is the data needed to create a post. Content is untrusted and normalized on write.
type PostInput struct {
	Title    string      `json:"title"`
	Author   string      `json:"author"`
	Category string      `json:"category"`
	ImageURL string      `json:"imageUrl"`
	Content  interface{} `json:"content,omitempty"`
}

// PostCandidate is a loosely typed record from an import source. Nil fields were not supplied.
type PostCandidate struct {
	ID       *string     `json:"id,omitempty" yaml:"id,omitempty"`
	Slug     *string     `json:"slug,omitempty" yaml:"slug,omitempty"`
	Title    *string     `json:"title,omitempty" yaml:"title,omitempty"`
	Content  interface{} `json:"content,omitempty" yaml:"content,omitempty"`
	Author   *string     `json:"author,omitempty" yaml:"author,omitempty"`
	Date     *string     `json:"date,omitempty" yaml:"date,omitempty"`
	Category *string     `json:"category,omitempty" yaml:"category,omitempty"`
	ImageURL *string     `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`

	// Line is the source line for diagnostics, zero when unknown
	Line int `json:"-" yaml:"-"`
}

// Supplied reports whether an optional candidate field carries a non-empty value
func Supplied(s *string) bool {
	return s != nil && *s != ""
}

// PostStats summarizes the collection for the stats endpoint
type PostStats struct {
	Total      int              `json:"total"`
	ByCategory map[Category]int `json:"by_category"`
	Blocks     int              `json:"blocks"`
}
