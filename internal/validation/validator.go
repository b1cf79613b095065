package validation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/editorial-cms/internal/models"
)

// ErrInvalid is matched by every validation failure
var ErrInvalid = errors.New("validation failed")

// DateLayouts are the date formats accepted from import sources, tried in order
var DateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Errors is a list of field errors returned as one error value
type Errors []ValidationError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fmt.Sprintf("%s: %s", fe.Field, fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrInvalid) hold for any Errors value
func (e Errors) Is(target error) bool {
	return target == ErrInvalid
}

// Fields returns the names of the failing fields
func (e Errors) Fields() []string {
	out := make([]string, len(e))
	for i, fe := range e {
		out[i] = fe.Field
	}
	return out
}

// ValidatePost checks the fields an editor must supply for a post.
// Returns nil when the post is acceptable.
func ValidatePost(title, author, imageURL string) error {
	var errs Errors

	if strings.TrimSpace(title) == "" {
		errs = append(errs, ValidationError{Field: "title", Message: "title is required"})
	}
	if strings.TrimSpace(author) == "" {
		errs = append(errs, ValidationError{Field: "author", Message: "author is required"})
	}
	if strings.TrimSpace(imageURL) == "" {
		errs = append(errs, ValidationError{Field: "imageUrl", Message: "imageUrl is required"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ParseDate parses an import date in any of DateLayouts
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid ISO 8601 date %q", s)
}

// Validator checks import candidates. It remembers slugs seen in the current batch.
type Validator struct {
	slugCache map[string]bool
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		slugCache: make(map[string]bool),
	}
}

// ValidateCandidate reports problems with an import candidate. None of them stop the import:
// the repository repairs or ignores the offending field.
func (v *Validator) ValidateCandidate(c *models.PostCandidate) []ValidationError {
	var errors []ValidationError

	// Validate category
	if models.Supplied(c.Category) {
		if _, ok := models.ParseCategory(*c.Category); !ok {
			errors = append(errors, ValidationError{
				Field:   "category",
				Message: "unknown category, must be one of: Fashion, Technology, Travel, Food, General",
				Value:   *c.Category,
			})
		}
	}

	// Validate date
	if models.Supplied(c.Date) {
		if _, err := ParseDate(*c.Date); err != nil {
			errors = append(errors, ValidationError{Field: "date", Message: "invalid ISO 8601 date format", Value: *c.Date})
		}
	}

	// Check for duplicate slug in current batch
	if models.Supplied(c.Slug) {
		if v.slugCache[*c.Slug] {
			errors = append(errors, ValidationError{Field: "slug", Message: "duplicate slug", Value: *c.Slug})
		}
		v.slugCache[*c.Slug] = true
	}

	return errors
}

// MissingForCreate lists the fields a candidate lacks to become a new post
func MissingForCreate(c *models.PostCandidate) []string {
	var missing []string
	if !models.Supplied(c.Title) {
		missing = append(missing, "title")
	}
	if !models.Supplied(c.Author) {
		missing = append(missing, "author")
	}
	if !models.Supplied(c.Category) {
		missing = append(missing, "category")
	}
	if !models.Supplied(c.ImageURL) {
		missing = append(missing, "imageUrl")
	}
	return missing
}
