package models

// WebhookAction is the operation requested through the webhook
type WebhookAction string

const (
	WebhookCreate WebhookAction = "create"
	WebhookUpdate WebhookAction = "update"
)

// WebhookRequest carries the raw query parameters of a webhook call.
// Nil means the parameter was absent.
type WebhookRequest struct {
	Action   string  `form:"action"`
	ID       *string `form:"id"`
	Title    *string `form:"title"`
	Author   *string `form:"author"`
	Category *string `form:"category"`
	ImageURL *string `form:"imageUrl"`
	Content  *string `form:"content"`
}

// WebhookStatus is the outcome of a webhook call
type WebhookStatus string

const (
	WebhookStatusSuccess WebhookStatus = "success"
	WebhookStatusError   WebhookStatus = "error"
)

// WebhookResult is the structured result returned to webhook callers
type WebhookResult struct {
	Status  WebhookStatus          `json:"status"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

// WebhookError builds an error result
func WebhookError(msg string, data map[string]interface{}) *WebhookResult {
	if data == nil {
		data = map[string]interface{}{}
	}
	return &WebhookResult{Status: WebhookStatusError, Message: msg, Data: data}
}

// WebhookSuccess builds a success result for a post
func WebhookSuccess(msg string, post *Post) *WebhookResult {
	return &WebhookResult{
		Status:  WebhookStatusSuccess,
		Message: msg,
		Data:    map[string]interface{}{"postId": post.ID, "slug": post.Slug},
	}
}
