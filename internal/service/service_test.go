package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/editorial-cms/internal/config"
	"github.com/editorial-cms/internal/content"
	"github.com/editorial-cms/internal/mocks"
	"github.com/editorial-cms/internal/models"
	"github.com/editorial-cms/internal/repository"
	"github.com/editorial-cms/internal/service"
	"github.com/editorial-cms/internal/validation"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

var fixedNow = time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func strPtr(s string) *string { return &s }

func storedPost(id, title string, date time.Time) *models.Post {
	return &models.Post{
		ID:    id,
		Slug:  content.Slugify(title),
		Title: title,
		Content: content.Blocks{
			content.TextBlock{ID: "t-" + id, Text: "Body of " + id},
		},
		Author:   "Editor",
		Date:     date,
		Category: models.CategoryTravel,
		ImageURL: "https://img.example.com/" + id + ".jpg",
	}
}

func newPostService(posts ...*models.Post) (service.PostService, *mocks.MockPostBackend) {
	backend := mocks.NewMockPostBackend(posts...)
	return service.NewPostService(backend, zerolog.Nop(), service.WithClock(clock)), backend
}

func TestPostService_AddPost(t *testing.T) {
	svc, backend := newPostService()
	ctx := context.Background()

	post, err := svc.AddPost(ctx, models.PostInput{
		Title:    "Hello, World!",
		Author:   "Ana",
		Category: "Unknown",
		ImageURL: "https://img.example.com/1.jpg",
	})
	if err != nil {
		t.Fatalf("AddPost failed: %v", err)
	}

	if post.ID == "" {
		t.Error("id should be generated")
	}
	if post.Slug != "hello-world" {
		t.Errorf("Expected slug 'hello-world', got %q", post.Slug)
	}
	if post.Category != models.CategoryGeneral {
		t.Errorf("Unknown category should become General, got %s", post.Category)
	}
	if !post.Date.Equal(fixedNow) {
		t.Errorf("Expected date %v, got %v", fixedNow, post.Date)
	}
	if len(post.Content) != 1 {
		t.Fatalf("Expected one default block, got %d", len(post.Content))
	}
	if tb, ok := post.Content[0].(content.TextBlock); !ok || tb.Text != "" || tb.ID == "" {
		t.Errorf("Expected one empty text block, got %#v", post.Content[0])
	}

	if backend.InsertCalls != 1 || backend.Get(post.ID) == nil {
		t.Error("post should be persisted through Insert")
	}

	got, err := svc.GetPostBySlug(ctx, "hello-world")
	if err != nil || got == nil || got.ID != post.ID {
		t.Errorf("GetPostBySlug should find the new post, got %v (%v)", got, err)
	}
}

func TestPostService_AddPost_NormalizesContent(t *testing.T) {
	svc, _ := newPostService()

	post, err := svc.AddPost(context.Background(), models.PostInput{
		Title:    "Blocks",
		Author:   "Ana",
		Category: "Food",
		ImageURL: "x.jpg",
		Content: []interface{}{
			map[string]interface{}{"id": "h", "type": "title", "text": "Hi", "level": 7.0},
			"not an object",
		},
	})
	if err != nil {
		t.Fatalf("AddPost failed: %v", err)
	}

	if len(post.Content) != 2 {
		t.Fatalf("Expected 2 blocks, got %d", len(post.Content))
	}
	if title := post.Content[0].(content.TitleBlock); title.Level != content.HeadingLevel2 {
		t.Errorf("invalid level should be coerced to 2, got %d", title.Level)
	}
	if _, ok := post.Content[1].(content.TextBlock); !ok {
		t.Errorf("malformed element should become a text block, got %T", post.Content[1])
	}
}

func TestPostService_AddPost_SlugFallback(t *testing.T) {
	svc, _ := newPostService()

	post, err := svc.AddPost(context.Background(), models.PostInput{
		Title: "!!!", Author: "Ana", Category: "Food", ImageURL: "x.jpg",
	})
	if err != nil {
		t.Fatalf("AddPost failed: %v", err)
	}

	want := fmt.Sprintf("post-%d", fixedNow.UnixMilli())
	if post.Slug != want {
		t.Errorf("Expected fallback slug %q, got %q", want, post.Slug)
	}
}

func TestPostService_AddPost_Validation(t *testing.T) {
	svc, backend := newPostService()

	_, err := svc.AddPost(context.Background(), models.PostInput{Title: "  ", Author: "", ImageURL: "x.jpg"})
	if !errors.Is(err, validation.ErrInvalid) {
		t.Fatalf("Expected validation error, got %v", err)
	}

	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("Expected validation.Errors, got %T", err)
	}
	if diff := cmp.Diff([]string{"title", "author"}, verrs.Fields()); diff != "" {
		t.Errorf("failing fields mismatch (-want +got):\n%s", diff)
	}
	if backend.InsertCalls != 0 {
		t.Error("invalid input must not reach the backend")
	}
}

func TestPostService_AddPost_BackendError(t *testing.T) {
	svc, backend := newPostService()
	ctx := context.Background()
	backend.InsertError = errors.New("connection refused")

	_, err := svc.AddPost(ctx, models.PostInput{Title: "T", Author: "A", Category: "Food", ImageURL: "x"})
	if !errors.Is(err, backend.InsertError) {
		t.Fatalf("backend error should propagate, got %v", err)
	}

	posts, err := svc.ListPosts(ctx)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(posts) != 0 {
		t.Errorf("failed write must not appear in the collection, got %d posts", len(posts))
	}
}

func TestPostService_ListPosts_NewestFirst(t *testing.T) {
	svc, _ := newPostService(
		storedPost("a", "Old", fixedNow.Add(-48*time.Hour)),
		storedPost("b", "New", fixedNow),
		storedPost("c", "Middle", fixedNow.Add(-24*time.Hour)),
	)

	posts, err := svc.ListPosts(context.Background())
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}

	var ids []string
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	if diff := cmp.Diff([]string{"b", "c", "a"}, ids); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestPostService_GetPostBySlug_Missing(t *testing.T) {
	svc, _ := newPostService(storedPost("a", "Only", fixedNow))

	got, err := svc.GetPostBySlug(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetPostBySlug failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for a missing slug, got %v", got)
	}
}

func TestPostService_ReturnsCopies(t *testing.T) {
	svc, _ := newPostService(storedPost("a", "Only", fixedNow))
	ctx := context.Background()

	got, _ := svc.GetPostByID(ctx, "a")
	got.Title = "mutated"
	got.Content[0] = content.TextBlock{ID: "x", Text: "mutated"}

	again, _ := svc.GetPostByID(ctx, "a")
	if again.Title != "Only" || again.Content[0].(content.TextBlock).Text != "Body of a" {
		t.Error("callers must not be able to mutate the stored post")
	}
}

func TestPostService_LoadError(t *testing.T) {
	svc, backend := newPostService()
	backend.FetchAllError = errors.New("backend down")

	if _, err := svc.ListPosts(context.Background()); !errors.Is(err, backend.FetchAllError) {
		t.Errorf("Expected load error, got %v", err)
	}

	backend.FetchAllError = nil
	if err := svc.Load(context.Background()); err != nil {
		t.Errorf("Load should succeed once the backend recovers: %v", err)
	}
}

func TestPostService_UpdatePost(t *testing.T) {
	original := storedPost("a", "First Title", fixedNow.Add(-time.Hour))
	svc, backend := newPostService(original)
	ctx := context.Background()

	edit, _ := svc.GetPostByID(ctx, "a")
	edit.Title = "Second Title"
	edit.Date = time.Time{}
	edit.Category = "Bogus"
	edit.Content = content.Blocks{
		content.TitleBlock{ID: "h", Text: "Heading", Level: 9},
		content.TitleBlock{ID: "h", Text: "Duplicate id", Level: 3},
	}

	updated, err := svc.UpdatePost(ctx, edit)
	if err != nil {
		t.Fatalf("UpdatePost failed: %v", err)
	}

	if updated.Slug != "second-title" {
		t.Errorf("slug should follow the new title, got %q", updated.Slug)
	}
	if !updated.Date.Equal(original.Date) {
		t.Errorf("zero date should keep the stored date, got %v", updated.Date)
	}
	if updated.Category != models.CategoryTravel {
		t.Errorf("unknown category should keep the stored one, got %s", updated.Category)
	}
	if updated.Content[0].(content.TitleBlock).Level != content.HeadingLevel2 {
		t.Error("content should be normalized on update")
	}
	if updated.Content[0].BlockID() == updated.Content[1].BlockID() {
		t.Error("duplicate block ids should be repaired on update")
	}
	if backend.UpdateCalls != 1 {
		t.Errorf("Expected one UpdateByID call, got %d", backend.UpdateCalls)
	}
}

func TestPostService_UpdatePost_SameTitleKeepsSlug(t *testing.T) {
	post := storedPost("a", "Title", fixedNow)
	post.Slug = "custom-slug"
	svc, _ := newPostService(post)

	edit := post.Clone()
	edit.Slug = ""
	edit.Author = "Someone Else"

	updated, err := svc.UpdatePost(context.Background(), edit)
	if err != nil {
		t.Fatalf("UpdatePost failed: %v", err)
	}
	if updated.Slug != "custom-slug" {
		t.Errorf("unchanged title should keep the slug, got %q", updated.Slug)
	}
}

func TestPostService_UpdatePost_NotFound(t *testing.T) {
	svc, backend := newPostService()

	_, err := svc.UpdatePost(context.Background(), storedPost("ghost", "Ghost", fixedNow))
	if !errors.Is(err, service.ErrPostNotFound) {
		t.Errorf("Expected ErrPostNotFound, got %v", err)
	}
	if backend.UpdateCalls != 0 {
		t.Error("unknown id must not reach the backend")
	}
}

func TestPostService_UpdatePost_BackendErrorKeepsState(t *testing.T) {
	svc, backend := newPostService(storedPost("a", "Title", fixedNow))
	ctx := context.Background()
	backend.UpdateError = errors.New("write timeout")

	edit, _ := svc.GetPostByID(ctx, "a")
	edit.Title = "Changed"
	if _, err := svc.UpdatePost(ctx, edit); !errors.Is(err, backend.UpdateError) {
		t.Fatalf("Expected backend error, got %v", err)
	}

	got, _ := svc.GetPostByID(ctx, "a")
	if got.Title != "Title" {
		t.Errorf("failed update must leave the post unchanged, got title %q", got.Title)
	}
}

func TestProcessImportedData_Merge(t *testing.T) {
	existing := storedPost("p1", "Old Title", fixedNow.Add(-time.Hour))
	svc, backend := newPostService(existing)

	report, err := svc.ProcessImportedData(context.Background(), []models.PostCandidate{{
		ID:       strPtr("p1"),
		Title:    strPtr("New Title"),
		Category: strPtr("Bogus"),
		Content:  []interface{}{},
		Line:     2,
	}})
	if err != nil {
		t.Fatalf("ProcessImportedData failed: %v", err)
	}

	got := backend.Get("p1")
	if got.Title != "New Title" || got.Slug != "new-title" {
		t.Errorf("title and slug should be updated, got %q / %q", got.Title, got.Slug)
	}
	if got.Category != models.CategoryTravel {
		t.Errorf("invalid category should keep the existing one, got %s", got.Category)
	}
	if diff := cmp.Diff(existing.Content, got.Content); diff != "" {
		t.Errorf("empty content should keep existing blocks (-want +got):\n%s", diff)
	}
	if got.Author != existing.Author || got.ImageURL != existing.ImageURL || !got.Date.Equal(existing.Date) {
		t.Error("fields not supplied should be kept")
	}

	if report.Updated != 1 || report.Created != 0 || report.Processed != 1 {
		t.Errorf("unexpected counts: %+v", report)
	}
	if len(report.Errors) != 1 || report.Errors[0].Field != "category" || report.Errors[0].Line != 2 {
		t.Errorf("Expected one category diagnostic, got %+v", report.Errors)
	}
}

func TestProcessImportedData_MergeSlugFallback(t *testing.T) {
	existing := storedPost("p1", "Keep Me", fixedNow)
	svc, backend := newPostService(existing)

	_, err := svc.ProcessImportedData(context.Background(), []models.PostCandidate{{
		ID:    strPtr("p1"),
		Title: strPtr("???"),
	}})
	if err != nil {
		t.Fatalf("ProcessImportedData failed: %v", err)
	}

	got := backend.Get("p1")
	if got.Title != "???" || got.Slug != "keep-me" {
		t.Errorf("title should change and slug should be kept, got %q / %q", got.Title, got.Slug)
	}
}

func TestProcessImportedData_Create(t *testing.T) {
	svc, backend := newPostService()

	report, err := svc.ProcessImportedData(context.Background(), []models.PostCandidate{
		{
			Title:    strPtr("Fresh Post"),
			Author:   strPtr("Ana"),
			Category: strPtr("Nope"),
			ImageURL: strPtr("x.jpg"),
			Date:     strPtr("2024-01-15"),
			Content:  "Line a\n\nLine b",
		},
		{
			ID:       strPtr("given-id"),
			Title:    strPtr("With Id"),
			Author:   strPtr("Bo"),
			Category: strPtr("Food"),
			ImageURL: strPtr("y.jpg"),
		},
		{
			Title:  strPtr("Missing Fields"),
			Author: strPtr("Cy"),
			Line:   4,
		},
	})
	if err != nil {
		t.Fatalf("ProcessImportedData failed: %v", err)
	}

	if report.Created != 2 || report.Skipped != 1 || report.Total != 3 {
		t.Errorf("unexpected counts: %+v", report)
	}
	if backend.BulkUpsertCalls != 1 || len(backend.LastBulk) != 2 {
		t.Errorf("Expected one bulk upsert of 2 posts, got %d calls / %d posts", backend.BulkUpsertCalls, len(backend.LastBulk))
	}

	fresh := backend.LastBulk[0]
	if fresh.Slug != "fresh-post" || fresh.Category != models.CategoryGeneral {
		t.Errorf("unexpected new post %+v", fresh)
	}
	if !fresh.Date.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date should be parsed, got %v", fresh.Date)
	}
	if len(fresh.Content) != 2 || fresh.Content[1].(content.TextBlock).Text != "Line b" {
		t.Errorf("legacy text should become two text blocks, got %v", fresh.Content)
	}

	withID := backend.Get("given-id")
	if withID == nil {
		t.Fatal("candidate id should be used for the new post")
	}
	if len(withID.Content) != 1 || withID.Content[0].(content.TextBlock).Text != "" {
		t.Errorf("missing content should give one empty text block, got %v", withID.Content)
	}
	if !withID.Date.Equal(fixedNow) {
		t.Errorf("missing date should default to now, got %v", withID.Date)
	}

	var skip *models.RowError
	for i := range report.Errors {
		if report.Errors[i].Line == 4 {
			skip = &report.Errors[i]
		}
	}
	if skip == nil || !strings.Contains(skip.Message, "category") || !strings.Contains(skip.Message, "imageUrl") {
		t.Errorf("skipped row should name the missing fields, got %+v", report.Errors)
	}
}

func TestProcessImportedData_DuplicateIDInBatch(t *testing.T) {
	svc, backend := newPostService()

	report, err := svc.ProcessImportedData(context.Background(), []models.PostCandidate{
		{ID: strPtr("dup"), Title: strPtr("First"), Author: strPtr("A"), Category: strPtr("Food"), ImageURL: strPtr("x")},
		{ID: strPtr("dup"), Author: strPtr("B")},
	})
	if err != nil {
		t.Fatalf("ProcessImportedData failed: %v", err)
	}

	if report.Created != 1 || report.Updated != 1 {
		t.Errorf("second row should merge into the first, got %+v", report)
	}
	if backend.Count() != 1 || backend.Get("dup").Author != "B" || backend.Get("dup").Title != "First" {
		t.Errorf("unexpected stored post %+v", backend.Get("dup"))
	}
}

func TestProcessImportedData_BackendErrorKeepsState(t *testing.T) {
	svc, backend := newPostService(storedPost("p1", "Stable", fixedNow))
	ctx := context.Background()
	backend.BulkUpsertError = errors.New("disk full")

	_, err := svc.ProcessImportedData(ctx, []models.PostCandidate{
		{ID: strPtr("p1"), Title: strPtr("Changed")},
		{Title: strPtr("New"), Author: strPtr("A"), Category: strPtr("Food"), ImageURL: strPtr("x")},
	})
	if !errors.Is(err, backend.BulkUpsertError) {
		t.Fatalf("Expected backend error, got %v", err)
	}

	posts, _ := svc.ListPosts(ctx)
	if len(posts) != 1 || posts[0].Title != "Stable" {
		t.Errorf("failed import must not change the collection, got %v", posts)
	}
}

func TestProcessImportedData_NothingToWrite(t *testing.T) {
	svc, backend := newPostService()

	report, err := svc.ProcessImportedData(context.Background(), []models.PostCandidate{{Title: strPtr("Only title")}})
	if err != nil {
		t.Fatalf("ProcessImportedData failed: %v", err)
	}
	if report.Skipped != 1 || backend.BulkUpsertCalls != 0 {
		t.Errorf("Expected a skip and no backend write, got %+v / %d calls", report, backend.BulkUpsertCalls)
	}
}

func TestPostService_Stats(t *testing.T) {
	food := storedPost("b", "Two", fixedNow)
	food.Category = models.CategoryFood
	svc, _ := newPostService(storedPost("a", "One", fixedNow), food)

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 2 || stats.Blocks != 2 {
		t.Errorf("unexpected totals %+v", stats)
	}
	if stats.ByCategory[models.CategoryFood] != 1 || stats.ByCategory[models.CategoryTravel] != 1 {
		t.Errorf("unexpected category counts %v", stats.ByCategory)
	}
}

func newServices(backend repository.PostBackend, uploader *mocks.MockUploader) *service.Services {
	cfg := &config.Config{Export: config.ExportConfig{S3Prefix: "snapshots/"}}
	if uploader == nil {
		return service.NewServices(backend, nil, cfg, zerolog.Nop())
	}
	return service.NewServices(backend, uploader, cfg, zerolog.Nop())
}

func TestWebhook_Create(t *testing.T) {
	backend := mocks.NewMockPostBackend()
	svcs := newServices(backend, nil)

	result, err := svcs.Webhook.Handle(context.Background(), &models.WebhookRequest{
		Action:   "create",
		Title:    strPtr("From Make"),
		Author:   strPtr("Bot"),
		Category: strPtr("Technology"),
		ImageURL: strPtr("https://img.example.com/bot.jpg"),
		Content:  strPtr(`[{"id":"a","type":"button","text":"Go"}]`),
	})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if result.Status != models.WebhookStatusSuccess {
		t.Fatalf("Expected success, got %+v", result)
	}
	if result.Data["slug"] != "from-make" {
		t.Errorf("Expected slug in result data, got %v", result.Data)
	}

	post := backend.Get(result.Data["postId"].(string))
	if post == nil {
		t.Fatal("post should be stored")
	}
	if btn := post.Content[0].(content.ButtonBlock); btn.LinkURL != "#" {
		t.Errorf("button link should default to '#', got %q", btn.LinkURL)
	}
}

func TestWebhook_CreateDefaultContent(t *testing.T) {
	backend := mocks.NewMockPostBackend()
	svcs := newServices(backend, nil)

	result, err := svcs.Webhook.Handle(context.Background(), &models.WebhookRequest{
		Action: "create", Title: strPtr("T"), Author: strPtr("A"), Category: strPtr("Food"), ImageURL: strPtr("x"),
	})
	if err != nil || result.Status != models.WebhookStatusSuccess {
		t.Fatalf("Expected success, got %+v (%v)", result, err)
	}

	post := backend.Get(result.Data["postId"].(string))
	if post.Content[0].(content.TextBlock).Text != service.DefaultWebhookText {
		t.Errorf("Expected default webhook text, got %v", post.Content)
	}
}

func TestWebhook_Errors(t *testing.T) {
	tests := []struct {
		name string
		req  *models.WebhookRequest
		want string
	}{
		{
			name: "unknown action",
			req:  &models.WebhookRequest{Action: "delete"},
			want: "Invalid or missing 'action'",
		},
		{
			name: "create missing fields",
			req:  &models.WebhookRequest{Action: "create", Title: strPtr("T")},
			want: "Missing required fields",
		},
		{
			name: "update without id",
			req:  &models.WebhookRequest{Action: "update"},
			want: "Missing 'id' or 'slug'",
		},
		{
			name: "update unknown post",
			req:  &models.WebhookRequest{Action: "update", ID: strPtr("ghost")},
			want: "not found for update",
		},
		{
			name: "content not an array",
			req:  &models.WebhookRequest{Action: "create", Content: strPtr(`{"id":"a"}`)},
			want: "Invalid 'content' JSON",
		},
		{
			name: "content not json",
			req:  &models.WebhookRequest{Action: "create", Content: strPtr(`[{"id":`)},
			want: "Invalid 'content' JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := mocks.NewMockPostBackend()
			svcs := newServices(backend, nil)

			result, err := svcs.Webhook.Handle(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("request problems should not be errors: %v", err)
			}
			if result.Status != models.WebhookStatusError || !strings.Contains(result.Message, tt.want) {
				t.Errorf("Expected error containing %q, got %+v", tt.want, result)
			}
			if backend.InsertCalls+backend.UpdateCalls != 0 {
				t.Error("error results must not write")
			}
		})
	}
}

func TestWebhook_UpdateBySlug(t *testing.T) {
	existing := storedPost("p1", "Original Title", fixedNow)
	backend := mocks.NewMockPostBackend(existing)
	svcs := newServices(backend, nil)

	result, err := svcs.Webhook.Handle(context.Background(), &models.WebhookRequest{
		Action:   "update",
		ID:       strPtr("original-title"),
		Title:    strPtr("Renamed"),
		Category: strPtr("NotACategory"),
	})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if result.Status != models.WebhookStatusSuccess {
		t.Fatalf("Expected success, got %+v", result)
	}

	got := backend.Get("p1")
	if got.Title != "Renamed" || got.Slug != "renamed" {
		t.Errorf("title and slug should change, got %q / %q", got.Title, got.Slug)
	}
	if got.Category != models.CategoryTravel {
		t.Errorf("invalid category should keep the stored one, got %s", got.Category)
	}
	if diff := cmp.Diff(existing.Content, got.Content); diff != "" {
		t.Errorf("missing content should keep existing blocks (-want +got):\n%s", diff)
	}
}

func TestParseWebhookContent_DoubleEncoded(t *testing.T) {
	raw := `%5B%7B%22id%22%3A%22a%22%2C%22type%22%3A%22title%22%2C%22text%22%3A%22Hi%22%2C%22level%22%3A3%7D%5D`

	blocks, err := service.ParseWebhookContent(raw)
	if err != nil {
		t.Fatalf("ParseWebhookContent failed: %v", err)
	}
	want := content.Blocks{content.TitleBlock{ID: "a", Text: "Hi", Level: content.HeadingLevel3}}
	if diff := cmp.Diff(want, blocks); diff != "" {
		t.Errorf("blocks mismatch (-want +got):\n%s", diff)
	}
}

func TestExport_CSVRoundTrip(t *testing.T) {
	source := mocks.NewMockPostBackend(
		storedPost("a", "First", fixedNow),
		storedPost("b", "Second", fixedNow.Add(-time.Hour)),
	)
	exported := newServices(source, nil)

	var buf strings.Builder
	count, err := exported.Export.WriteCSV(context.Background(), &buf)
	if err != nil || count != 2 {
		t.Fatalf("WriteCSV returned %d, %v", count, err)
	}

	target := mocks.NewMockPostBackend()
	imported := newServices(target, nil)
	report, err := imported.Import.ImportCSV(context.Background(), strings.NewReader(buf.String()), models.ImportSourceUpload)
	if err != nil {
		t.Fatalf("ImportCSV failed: %v", err)
	}
	if report.Created != 2 || report.Source != models.ImportSourceUpload {
		t.Errorf("unexpected report %+v", report)
	}

	for _, id := range []string{"a", "b"} {
		if diff := cmp.Diff(source.Get(id), target.Get(id)); diff != "" {
			t.Errorf("post %s changed on round trip (-want +got):\n%s", id, diff)
		}
	}
}

func TestExport_Snapshot(t *testing.T) {
	uploader := mocks.NewMockUploader()
	svcs := newServices(mocks.NewMockPostBackend(storedPost("a", "One", fixedNow)), uploader)

	result, err := svcs.Export.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if !strings.HasPrefix(result.Key, "snapshots/posts-") || result.Posts != 1 {
		t.Errorf("unexpected snapshot %+v", result)
	}
	body, ok := uploader.Objects[result.Key]
	if !ok || !strings.HasPrefix(string(body), "id,slug,title,content") {
		t.Errorf("snapshot should be uploaded as CSV, got %q", body)
	}
}

func TestExport_SnapshotDisabled(t *testing.T) {
	svcs := newServices(mocks.NewMockPostBackend(), nil)

	if _, err := svcs.Export.Snapshot(context.Background()); !errors.Is(err, service.ErrSnapshotDisabled) {
		t.Errorf("Expected ErrSnapshotDisabled, got %v", err)
	}
}
