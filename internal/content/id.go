package content

import (
	"strings"

	"github.com/google/uuid"
)

const blockIDLength = 9

// NewBlockID returns a short random token for a block or slide.
// It is only unique enough within one article's block list.
func NewBlockID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return id[:blockIDLength]
}
