package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/editorial-cms/internal/content"
	"github.com/editorial-cms/internal/metrics"
	"github.com/editorial-cms/internal/models"
	"github.com/editorial-cms/internal/validation"
	"github.com/rs/zerolog"
)

// DefaultWebhookText fills a post created through the webhook without content
const DefaultWebhookText = "Default content from webhook."

// webhookService is the concrete implementation of WebhookService
type webhookService struct {
	posts PostService
	log   zerolog.Logger
}

// newWebhookService creates a new WebhookService
func newWebhookService(posts PostService, log zerolog.Logger) *webhookService {
	return &webhookService{
		posts: posts,
		log:   log.With().Str("service", "webhook").Logger(),
	}
}

// Handle runs a create or update request. Problems with the request come back as an error
// result; the returned error is reserved for backend failures.
func (s *webhookService) Handle(ctx context.Context, req *models.WebhookRequest) (*models.WebhookResult, error) {
	result, err := s.handle(ctx, req)
	if err != nil {
		metrics.WebhookRequests.WithLabelValues(req.Action, "failure").Inc()
		s.log.Error().Err(err).Str("action", req.Action).Msg("Webhook processing failed")
		return nil, err
	}

	metrics.WebhookRequests.WithLabelValues(req.Action, string(result.Status)).Inc()
	event := s.log.Info()
	if result.Status == models.WebhookStatusError {
		event = s.log.Warn()
	}
	event.Str("action", req.Action).Str("status", string(result.Status)).Msg(result.Message)

	return result, nil
}

func (s *webhookService) handle(ctx context.Context, req *models.WebhookRequest) (*models.WebhookResult, error) {
	var blocks content.Blocks
	if models.Supplied(req.Content) {
		parsed, err := ParseWebhookContent(*req.Content)
		if err != nil {
			return models.WebhookError(
				fmt.Sprintf("Invalid 'content' JSON: %v", err),
				map[string]interface{}{"receivedContent": *req.Content},
			), nil
		}
		blocks = parsed
	}

	switch models.WebhookAction(req.Action) {
	case models.WebhookCreate:
		return s.create(ctx, req, blocks)
	case models.WebhookUpdate:
		return s.update(ctx, req, blocks)
	default:
		return models.WebhookError("Invalid or missing 'action' parameter. Must be 'create' or 'update'.", nil), nil
	}
}

func (s *webhookService) create(ctx context.Context, req *models.WebhookRequest, blocks content.Blocks) (*models.WebhookResult, error) {
	if !models.Supplied(req.Title) || !models.Supplied(req.Author) || !models.Supplied(req.Category) || !models.Supplied(req.ImageURL) {
		return models.WebhookError("Missing required fields for create action: title, author, category, imageUrl.", nil), nil
	}
	if len(blocks) == 0 {
		blocks = content.Blocks{content.TextBlock{ID: content.NewBlockID(), Text: DefaultWebhookText}}
	}

	post, err := s.posts.AddPost(ctx, models.PostInput{
		Title:    *req.Title,
		Author:   *req.Author,
		Category: *req.Category,
		ImageURL: *req.ImageURL,
		Content:  blocks,
	})
	if err != nil {
		if errors.Is(err, validation.ErrInvalid) {
			return models.WebhookError(err.Error(), nil), nil
		}
		return nil, err
	}

	return models.WebhookSuccess("Post created successfully via webhook.", post), nil
}

func (s *webhookService) update(ctx context.Context, req *models.WebhookRequest, blocks content.Blocks) (*models.WebhookResult, error) {
	if !models.Supplied(req.ID) {
		return models.WebhookError("Missing 'id' or 'slug' for update action.", nil), nil
	}
	ref := *req.ID

	existing, err := s.posts.GetPostByID(ctx, ref)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		existing, err = s.posts.GetPostBySlug(ctx, ref)
		if err != nil {
			return nil, err
		}
	}
	if existing == nil {
		return models.WebhookError(
			fmt.Sprintf("Post with ID/Slug '%s' not found for update.", ref),
			map[string]interface{}{"postIdQuery": ref},
		), nil
	}

	updated := existing.Clone()
	if models.Supplied(req.Title) {
		updated.Title = *req.Title
	}
	if models.Supplied(req.Author) {
		updated.Author = *req.Author
	}
	if models.Supplied(req.Category) {
		if cat, ok := models.ParseCategory(*req.Category); ok {
			updated.Category = cat
		}
	}
	if models.Supplied(req.ImageURL) {
		updated.ImageURL = *req.ImageURL
	}
	if len(blocks) > 0 {
		updated.Content = blocks
	}

	post, err := s.posts.UpdatePost(ctx, updated)
	if err != nil {
		if errors.Is(err, validation.ErrInvalid) || errors.Is(err, ErrPostNotFound) {
			return models.WebhookError(err.Error(), nil), nil
		}
		return nil, err
	}

	return models.WebhookSuccess("Post updated successfully via webhook.", post), nil
}

// ParseWebhookContent decodes the content parameter. The value is tried as JSON first and
// then once more URL-decoded, since some callers encode it twice. Anything but a JSON array
// is rejected; the array is normalized.
func ParseWebhookContent(raw string) (content.Blocks, error) {
	items, err := decodeArray(raw)
	if err != nil {
		unescaped, uerr := url.QueryUnescape(raw)
		if uerr != nil || unescaped == raw {
			return nil, err
		}
		if items, err = decodeArray(unescaped); err != nil {
			return nil, err
		}
	}
	return content.Normalize(items), nil
}

func decodeArray(raw string) ([]interface{}, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	items, ok := v.([]interface{})
	if !ok {
		return nil, errors.New("parsed 'content' is not an array")
	}
	return items, nil
}
