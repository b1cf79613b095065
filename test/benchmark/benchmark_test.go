package benchmark

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/editorial-cms/internal/config"
	"github.com/editorial-cms/internal/content"
	"github.com/editorial-cms/internal/editor"
	"github.com/editorial-cms/internal/interchange"
	"github.com/editorial-cms/internal/mocks"
	"github.com/editorial-cms/internal/models"
	"github.com/editorial-cms/internal/service"
	"github.com/rs/zerolog"
)

func samplePosts(n int) []*models.Post {
	posts := make([]*models.Post, n)
	for i := range posts {
		posts[i] = &models.Post{
			ID:    fmt.Sprintf("p-%06d", i),
			Slug:  fmt.Sprintf("post-%d", i),
			Title: fmt.Sprintf("Post %d", i),
			Content: content.Blocks{
				content.TitleBlock{ID: fmt.Sprintf("h%d", i), Text: "Heading", Level: content.HeadingLevel2},
				content.TextBlock{ID: fmt.Sprintf("t%d", i), Text: "Body text for the benchmark post."},
				content.SliderBlock{ID: fmt.Sprintf("s%d", i), Slides: []content.ImageSlide{
					{ID: fmt.Sprintf("s%d-1", i), ImageURL: "a.jpg"},
					{ID: fmt.Sprintf("s%d-2", i), ImageURL: "b.jpg", LinkURL: content.StringPtr("/x")},
				}},
			},
			Author:   "Bench",
			Date:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute),
			Category: models.CategoryTechnology,
			ImageURL: "cover.jpg",
		}
	}
	return posts
}

// BenchmarkNormalize benchmarks decoding untrusted block JSON
func BenchmarkNormalize(b *testing.B) {
	raw := []byte(`[
		{"id":"a","type":"text","text":"hello"},
		{"type":"title","text":"Heading","level":"3"},
		{"id":"c","type":"slider","slides":[{"imageUrl":"a.jpg"},{"id":"s2","imageUrl":"b.jpg","linkUrl":"/y"}]},
		{"id":"d","type":"button","text":"Go","linkUrl":"/z"},
		{"id":"e","type":"video","src":"v.mp4"},
		42
	]`)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if blocks := content.NormalizeJSON(raw); len(blocks) != 6 {
			b.Fatalf("expected 6 blocks, got %d", len(blocks))
		}
	}
}

// BenchmarkEditorOps benchmarks replaying a typical editing session
func BenchmarkEditorOps(b *testing.B) {
	base := samplePosts(1)[0].Content
	ops := []editor.Op{
		{Kind: editor.OpInsert, BlockType: content.BlockTypeText},
		{Kind: editor.OpMove, BlockID: base[2].BlockID(), Direction: editor.Up},
		{Kind: editor.OpAddSlide, BlockID: base[2].BlockID()},
		{Kind: editor.OpUpdateSlide, BlockID: base[2].BlockID(), SlideID: "s0-1", Field: editor.SlideLinkURL, Value: "/new"},
		{Kind: editor.OpDelete, BlockID: base[0].BlockID()},
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, _, err := editor.ApplyAll(base, ops); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkWriteCSV benchmarks CSV export performance
func BenchmarkWriteCSV(b *testing.B) {
	posts := samplePosts(1000)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if err := interchange.WritePosts(io.Discard, posts); err != nil {
			b.Fatal(err)
		}
	}

	b.ReportMetric(float64(1000*b.N)/b.Elapsed().Seconds(), "rows/sec")
}

// BenchmarkImportMerge benchmarks re-importing an export over the same collection
func BenchmarkImportMerge(b *testing.B) {
	posts := samplePosts(1000)
	var buf bytes.Buffer
	if err := interchange.WritePosts(&buf, posts); err != nil {
		b.Fatal(err)
	}
	data := buf.Bytes()

	backend := mocks.NewMockPostBackend(posts...)
	services := service.NewServices(backend, nil, &config.Config{}, zerolog.Nop())

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		report, err := services.Import.ImportCSV(context.Background(), bytes.NewReader(data), models.ImportSourceCLI)
		if err != nil {
			b.Fatal(err)
		}
		if report.Updated != 1000 {
			b.Fatalf("expected 1000 updates, got %d", report.Updated)
		}
	}

	b.ReportMetric(float64(1000*b.N)/b.Elapsed().Seconds(), "rows/sec")
}
