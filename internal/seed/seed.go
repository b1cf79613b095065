// Package seed loads the initial posts shipped with the service.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/editorial-cms/internal/models"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// File is the layout of a seed file
type File struct {
	Posts []models.PostCandidate `yaml:"posts"`
}

// Load reads a seed file from disk
func Load(path string) ([]models.PostCandidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes seed YAML. Each candidate carries the line its entry starts on.
func Parse(data []byte) ([]models.PostCandidate, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("seed file must be a mapping with a posts list")
	}

	var list *yaml.Node
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == "posts" {
			list = root.Content[i+1]
		}
	}
	if list == nil {
		return nil, nil
	}
	if list.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: posts must be a list", list.Line)
	}

	candidates := make([]models.PostCandidate, 0, len(list.Content))
	for _, item := range list.Content {
		var c models.PostCandidate
		if err := item.Decode(&c); err != nil {
			return nil, fmt.Errorf("line %d: %w", item.Line, err)
		}
		c.Line = item.Line
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// Lister reports the current posts
type Lister interface {
	ListPosts(ctx context.Context) ([]*models.Post, error)
}

// Importer merges candidates into the collection
type Importer interface {
	ImportCandidates(ctx context.Context, candidates []models.PostCandidate, source models.ImportSource) (*models.ImportReport, error)
}

// IfEmpty imports the seed file when the collection has no posts.
// It returns a nil report when nothing was seeded.
func IfEmpty(ctx context.Context, path string, posts Lister, importer Importer, log zerolog.Logger) (*models.ImportReport, error) {
	existing, err := posts.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		log.Debug().Int("posts", len(existing)).Msg("Store not empty, skipping seed")
		return nil, nil
	}

	candidates, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("load seed %s: %w", path, err)
	}

	report, err := importer.ImportCandidates(ctx, candidates, models.ImportSourceSeed)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("file", path).
		Int("created", report.Created).
		Int("skipped", report.Skipped).
		Msg("Seeded posts")
	return report, nil
}
