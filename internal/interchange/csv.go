// Package interchange reads and writes the CSV format used for bulk post import and export.
//
// The header is id,slug,title,content,author,date,category,imageUrl. The content column holds
// the JSON form of the post's blocks. Parsed rows come back as loosely typed candidates; they
// are not normalized here.
package interchange

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/editorial-cms/internal/models"
)

// Header is the column order written by WritePosts
var Header = []string{"id", "slug", "title", "content", "author", "date", "category", "imageUrl"}

// DateLayout is ISO 8601 with millisecond precision, always in UTC
const DateLayout = "2006-01-02T15:04:05.000Z07:00"

// WritePosts writes the header and one row per post
func WritePosts(w io.Writer, posts []*models.Post) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Header); err != nil {
		return err
	}
	for _, post := range posts {
		record, err := postRecord(post)
		if err != nil {
			return err
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func postRecord(post *models.Post) ([]string, error) {
	body, err := json.Marshal(post.Content)
	if err != nil {
		return nil, fmt.Errorf("encode content of post %s: %w", post.ID, err)
	}
	return []string{
		post.ID,
		post.Slug,
		post.Title,
		string(body),
		post.Author,
		FormatDate(post.Date),
		string(post.Category),
		post.ImageURL,
	}, nil
}

// ReadPosts parses CSV into import candidates. Malformed rows are reported in the returned
// diagnostics and left out; only a read failure of r itself is returned as an error.
func ReadPosts(r io.Reader) ([]models.PostCandidate, []models.RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	// Read header
	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	headerMap := make(map[string]int)
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		headerMap[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var diagnostics []models.RowError
	for _, col := range Header {
		if _, ok := headerMap[strings.ToLower(col)]; !ok {
			diagnostics = append(diagnostics, models.RowError{
				Line:    1,
				Field:   col,
				Message: "missing column",
			})
		}
	}

	var candidates []models.PostCandidate
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				diagnostics = append(diagnostics, models.RowError{
					Line:    perr.Line,
					Message: fmt.Sprintf("malformed row: %v", perr.Err),
				})
				continue
			}
			return candidates, diagnostics, fmt.Errorf("read row: %w", err)
		}
		line, _ := reader.FieldPos(0)

		if len(record) != len(header) {
			diagnostics = append(diagnostics, models.RowError{
				Line:    line,
				Message: fmt.Sprintf("incorrect number of fields: expected %d, got %d", len(header), len(record)),
				Value:   len(record),
			})
			continue
		}
		if blankRecord(record) {
			continue
		}

		candidates = append(candidates, candidateFromRecord(record, headerMap, line))
	}

	return candidates, diagnostics, nil
}

func candidateFromRecord(record []string, headerMap map[string]int, line int) models.PostCandidate {
	c := models.PostCandidate{
		ID:       optionalField(record, headerMap, "id"),
		Slug:     optionalField(record, headerMap, "slug"),
		Title:    optionalField(record, headerMap, "title"),
		Author:   optionalField(record, headerMap, "author"),
		Date:     optionalField(record, headerMap, "date"),
		Category: optionalField(record, headerMap, "category"),
		ImageURL: optionalField(record, headerMap, "imageurl"),
		Line:     line,
	}
	if raw := getField(record, headerMap, "content"); raw != "" {
		c.Content = ParseContentCell(raw)
	}
	return c
}

// ParseContentCell returns the decoded JSON array of a content cell, or the cell itself when
// it is not a JSON array, so it takes the legacy plain-text path when normalized.
func ParseContentCell(raw string) interface{} {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return raw
	}
	// trailing data means the cell was not a single JSON value
	if _, err := dec.Token(); err != io.EOF {
		return raw
	}
	if items, ok := v.([]interface{}); ok {
		return items
	}
	return raw
}

// trimmedFields are matched or parsed, so surrounding whitespace is dropped.
// Free-text cells are kept as written.
var trimmedFields = map[string]bool{
	"id":       true,
	"slug":     true,
	"date":     true,
	"category": true,
	"content":  true,
}

func getField(record []string, headerMap map[string]int, field string) string {
	idx, ok := headerMap[field]
	if !ok || idx >= len(record) {
		return ""
	}
	if trimmedFields[field] {
		return strings.TrimSpace(record[idx])
	}
	return record[idx]
}

// optionalField treats an empty or whitespace-only cell as not supplied
func optionalField(record []string, headerMap map[string]int, field string) *string {
	v := getField(record, headerMap, field)
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}

func blankRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// FormatDate renders a post date the way WritePosts does
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
