package editor

import (
	"errors"
	"fmt"

	"github.com/editorial-cms/internal/content"
)

// OpKind names a serialized editor operation
type OpKind string

const (
	OpInsert      OpKind = "insert"
	OpUpdate      OpKind = "update"
	OpMove        OpKind = "move"
	OpDelete      OpKind = "delete"
	OpUpdateSlide OpKind = "updateSlide"
	OpAddSlide    OpKind = "addSlide"
	OpDeleteSlide OpKind = "deleteSlide"
)

// ErrInvalidOp is returned by Apply for operations it cannot interpret
var ErrInvalidOp = errors.New("invalid editor operation")

// Op is one editor operation as sent by a client
type Op struct {
	Kind      OpKind            `json:"op"`
	BlockType content.BlockType `json:"blockType,omitempty"`
	BlockID   string            `json:"blockId,omitempty"`
	SlideID   string            `json:"slideId,omitempty"`
	Direction Direction         `json:"direction,omitempty"`
	Field     SlideField        `json:"field,omitempty"`
	Value     string            `json:"value,omitempty"`
	Patch     *Patch            `json:"patch,omitempty"`
}

// Apply replays op against blocks. Unresolved ids are reported as unchanged, not as errors.
func Apply(blocks content.Blocks, op Op) (content.Blocks, bool, error) {
	switch op.Kind {
	case OpInsert:
		if !content.ValidBlockTypes[op.BlockType] {
			return blocks, false, fmt.Errorf("%w: unknown block type %q", ErrInvalidOp, op.BlockType)
		}
		out, changed := Insert(blocks, op.BlockType)
		return out, changed, nil
	case OpUpdate:
		if op.Patch == nil {
			return blocks, false, fmt.Errorf("%w: update requires a patch", ErrInvalidOp)
		}
		out, changed := UpdateBlock(blocks, op.BlockID, *op.Patch)
		return out, changed, nil
	case OpMove:
		if op.Direction != Up && op.Direction != Down {
			return blocks, false, fmt.Errorf("%w: direction must be up or down", ErrInvalidOp)
		}
		out, changed := MoveBlock(blocks, op.BlockID, op.Direction)
		return out, changed, nil
	case OpDelete:
		out, changed := DeleteBlock(blocks, op.BlockID)
		return out, changed, nil
	case OpUpdateSlide:
		if op.Field != SlideImageURL && op.Field != SlideLinkURL {
			return blocks, false, fmt.Errorf("%w: unknown slide field %q", ErrInvalidOp, op.Field)
		}
		out, changed := UpdateSlide(blocks, op.BlockID, op.SlideID, op.Field, op.Value)
		return out, changed, nil
	case OpAddSlide:
		out, changed := AddSlide(blocks, op.BlockID)
		return out, changed, nil
	case OpDeleteSlide:
		out, changed := DeleteSlide(blocks, op.BlockID, op.SlideID)
		return out, changed, nil
	}
	return blocks, false, fmt.Errorf("%w: unknown op %q", ErrInvalidOp, op.Kind)
}

// ApplyAll replays ops in order, stopping at the first invalid one
func ApplyAll(blocks content.Blocks, ops []Op) (content.Blocks, int, error) {
	changed := 0
	for i, op := range ops {
		out, ok, err := Apply(blocks, op)
		if err != nil {
			return blocks, changed, fmt.Errorf("op %d: %w", i, err)
		}
		if ok {
			changed++
		}
		blocks = out
	}
	return blocks, changed, nil
}
