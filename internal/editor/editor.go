// Package editor implements the id-addressed block list operations used while an article is
// being edited. Every operation is pure: it returns a new sequence and a flag reporting whether
// anything changed. An id that does not resolve is a no-op, never an error.
package editor

import (
	"slices"

	"github.com/editorial-cms/internal/content"
)

// Direction is the way a block moves in the sequence
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// SlideField names the editable fields of a slide
type SlideField string

const (
	SlideImageURL SlideField = "imageUrl"
	SlideLinkURL  SlideField = "linkUrl"
)

// Patch is a partial block update. Type must equal the target block's type or the patch is
// rejected. Nil fields are left untouched.
type Patch struct {
	Type    content.BlockType     `json:"type"`
	Text    *string               `json:"text,omitempty"`
	Level   *content.HeadingLevel `json:"level,omitempty"`
	LinkURL *string               `json:"linkUrl,omitempty"`
	Slides  []content.ImageSlide  `json:"slides,omitempty"`
}

// NewBlock returns an empty block of the given type with a fresh id.
// The second result is false for an unknown type.
func NewBlock(t content.BlockType) (content.ContentBlock, bool) {
	id := content.NewBlockID()
	switch t {
	case content.BlockTypeText:
		return content.TextBlock{ID: id}, true
	case content.BlockTypeTitle:
		return content.TitleBlock{ID: id, Level: content.HeadingLevel2}, true
	case content.BlockTypeSlider:
		return content.SliderBlock{ID: id, Slides: []content.ImageSlide{newSlide()}}, true
	case content.BlockTypeButton:
		return content.ButtonBlock{ID: id, LinkURL: content.DefaultButtonLink}, true
	}
	return nil, false
}

func newSlide() content.ImageSlide {
	return content.ImageSlide{ID: content.NewBlockID(), LinkURL: content.StringPtr("")}
}

// Insert appends an empty block of type t
func Insert(blocks content.Blocks, t content.BlockType) (content.Blocks, bool) {
	b, ok := NewBlock(t)
	if !ok {
		return blocks, false
	}
	out := make(content.Blocks, 0, len(blocks)+1)
	out = append(out, blocks...)
	return append(out, b), true
}

// UpdateBlock applies p to the block with the given id
func UpdateBlock(blocks content.Blocks, id string, p Patch) (content.Blocks, bool) {
	i := blocks.Find(id)
	if i < 0 || blocks[i].Type() != p.Type {
		return blocks, false
	}
	pa := &patcher{patch: p}
	blocks[i].Accept(pa)
	return replaceAt(blocks, i, pa.out), true
}

// MoveBlock swaps the block with its neighbour. Moving past either end is a no-op.
func MoveBlock(blocks content.Blocks, id string, dir Direction) (content.Blocks, bool) {
	i := blocks.Find(id)
	if i < 0 {
		return blocks, false
	}
	var j int
	switch dir {
	case Up:
		j = i - 1
	case Down:
		j = i + 1
	default:
		return blocks, false
	}
	if j < 0 || j >= len(blocks) {
		return blocks, false
	}
	out := slices.Clone(blocks)
	out[i], out[j] = out[j], out[i]
	return out, true
}

// DeleteBlock removes the block with the given id
func DeleteBlock(blocks content.Blocks, id string) (content.Blocks, bool) {
	i := blocks.Find(id)
	if i < 0 {
		return blocks, false
	}
	return slices.Delete(slices.Clone(blocks), i, i+1), true
}

// UpdateSlide sets one field of a slide inside a slider block
func UpdateSlide(blocks content.Blocks, blockID, slideID string, field SlideField, value string) (content.Blocks, bool) {
	return withSlider(blocks, blockID, func(slides []content.ImageSlide) ([]content.ImageSlide, bool) {
		j := slices.IndexFunc(slides, func(s content.ImageSlide) bool { return s.ID == slideID })
		if j < 0 {
			return slides, false
		}
		switch field {
		case SlideImageURL:
			slides[j].ImageURL = value
		case SlideLinkURL:
			slides[j].LinkURL = content.StringPtr(value)
		default:
			return slides, false
		}
		return slides, true
	})
}

// AddSlide appends an empty slide to a slider block
func AddSlide(blocks content.Blocks, blockID string) (content.Blocks, bool) {
	return withSlider(blocks, blockID, func(slides []content.ImageSlide) ([]content.ImageSlide, bool) {
		return append(slides, newSlide()), true
	})
}

// DeleteSlide removes a slide from a slider block
func DeleteSlide(blocks content.Blocks, blockID, slideID string) (content.Blocks, bool) {
	return withSlider(blocks, blockID, func(slides []content.ImageSlide) ([]content.ImageSlide, bool) {
		j := slices.IndexFunc(slides, func(s content.ImageSlide) bool { return s.ID == slideID })
		if j < 0 {
			return slides, false
		}
		return slices.Delete(slides, j, j+1), true
	})
}

// withSlider runs fn on a private copy of the slides of blockID.
// No-op when the id is unknown or names a block that is not a slider.
func withSlider(blocks content.Blocks, blockID string, fn func([]content.ImageSlide) ([]content.ImageSlide, bool)) (content.Blocks, bool) {
	i := blocks.Find(blockID)
	if i < 0 {
		return blocks, false
	}
	slider, ok := blocks[i].(content.SliderBlock)
	if !ok {
		return blocks, false
	}
	slides := content.CloneSlides(slider.Slides)
	if slides == nil {
		slides = []content.ImageSlide{}
	}
	slides, changed := fn(slides)
	if !changed {
		return blocks, false
	}
	slider.Slides = slides
	return replaceAt(blocks, i, slider), true
}

func replaceAt(blocks content.Blocks, i int, b content.ContentBlock) content.Blocks {
	out := slices.Clone(blocks)
	out[i] = b
	return out
}

// patcher applies a same-type patch to one block
type patcher struct {
	patch Patch
	out   content.ContentBlock
}

func (p *patcher) VisitText(b content.TextBlock) {
	if p.patch.Text != nil {
		b.Text = *p.patch.Text
	}
	p.out = b
}

func (p *patcher) VisitTitle(b content.TitleBlock) {
	if p.patch.Text != nil {
		b.Text = *p.patch.Text
	}
	// an invalid level keeps the previous one
	if p.patch.Level != nil && p.patch.Level.Valid() {
		b.Level = *p.patch.Level
	}
	p.out = b
}

func (p *patcher) VisitSlider(b content.SliderBlock) {
	if p.patch.Slides != nil {
		slides := content.CloneSlides(p.patch.Slides)
		for i := range slides {
			if slides[i].ID == "" {
				slides[i].ID = content.NewBlockID()
			}
		}
		b.Slides = slides
	}
	p.out = b
}

func (p *patcher) VisitButton(b content.ButtonBlock) {
	if p.patch.Text != nil {
		b.Text = *p.patch.Text
	}
	if p.patch.LinkURL != nil {
		b.LinkURL = *p.patch.LinkURL
	}
	p.out = b
}
