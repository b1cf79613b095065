package content

import (
	"encoding/json"
	"slices"
)

// BlockType is the discriminant of a content block
type BlockType string

const (
	BlockTypeText   BlockType = "text"
	BlockTypeTitle  BlockType = "title"
	BlockTypeSlider BlockType = "slider"
	BlockTypeButton BlockType = "button"
)

// ValidBlockTypes lists the known block variants
var ValidBlockTypes = map[BlockType]bool{
	BlockTypeText:   true,
	BlockTypeTitle:  true,
	BlockTypeSlider: true,
	BlockTypeButton: true,
}

// DefaultButtonLink is used when a button has no target
const DefaultButtonLink = "#"

// HeadingLevel is the rank of a title block (h2, h3 or h4)
type HeadingLevel int

const (
	HeadingLevel2 HeadingLevel = 2
	HeadingLevel3 HeadingLevel = 3
	HeadingLevel4 HeadingLevel = 4
)

// Valid reports whether the level is one of 2, 3 or 4
func (l HeadingLevel) Valid() bool {
	return l >= HeadingLevel2 && l <= HeadingLevel4
}

// ContentBlock is one addressable unit of article content.
// The set of implementations is closed: TextBlock, TitleBlock, SliderBlock and ButtonBlock.
type ContentBlock interface {
	BlockID() string
	Type() BlockType
	Accept(v BlockVisitor)
	isContentBlock()
}

// BlockVisitor must be implemented by code that handles every block variant.
// Adding a variant adds a method here, so every visitor stops compiling until it handles it.
type BlockVisitor interface {
	VisitText(b TextBlock)
	VisitTitle(b TitleBlock)
	VisitSlider(b SliderBlock)
	VisitButton(b ButtonBlock)
}

// TextBlock is a paragraph
type TextBlock struct {
	ID   string
	Text string
}

// TitleBlock is a heading
type TitleBlock struct {
	ID    string
	Text  string
	Level HeadingLevel
}

// ImageSlide is one image of a slider. LinkURL is nil when no link was provided.
type ImageSlide struct {
	ID       string  `json:"id"`
	ImageURL string  `json:"imageUrl"`
	LinkURL  *string `json:"linkUrl,omitempty"`
}

// SliderBlock is an ordered, possibly empty list of slides
type SliderBlock struct {
	ID     string
	Slides []ImageSlide
}

// ButtonBlock is a call-to-action link
type ButtonBlock struct {
	ID      string
	Text    string
	LinkURL string
}

func (b TextBlock) BlockID() string   { return b.ID }
func (b TitleBlock) BlockID() string  { return b.ID }
func (b SliderBlock) BlockID() string { return b.ID }
func (b ButtonBlock) BlockID() string { return b.ID }

func (TextBlock) Type() BlockType   { return BlockTypeText }
func (TitleBlock) Type() BlockType  { return BlockTypeTitle }
func (SliderBlock) Type() BlockType { return BlockTypeSlider }
func (ButtonBlock) Type() BlockType { return BlockTypeButton }

func (b TextBlock) Accept(v BlockVisitor)   { v.VisitText(b) }
func (b TitleBlock) Accept(v BlockVisitor)  { v.VisitTitle(b) }
func (b SliderBlock) Accept(v BlockVisitor) { v.VisitSlider(b) }
func (b ButtonBlock) Accept(v BlockVisitor) { v.VisitButton(b) }

func (TextBlock) isContentBlock()   {}
func (TitleBlock) isContentBlock()  {}
func (SliderBlock) isContentBlock() {}
func (ButtonBlock) isContentBlock() {}

// Wire shapes. Field order is the order the JSON is written in.

type textWire struct {
	ID   string    `json:"id"`
	Type BlockType `json:"type"`
	Text string    `json:"text"`
}

type titleWire struct {
	ID    string       `json:"id"`
	Type  BlockType    `json:"type"`
	Text  string       `json:"text"`
	Level HeadingLevel `json:"level"`
}

type sliderWire struct {
	ID     string       `json:"id"`
	Type   BlockType    `json:"type"`
	Slides []ImageSlide `json:"slides"`
}

type buttonWire struct {
	ID      string    `json:"id"`
	Type    BlockType `json:"type"`
	Text    string    `json:"text"`
	LinkURL string    `json:"linkUrl"`
}

// MarshalJSON writes the tagged wire form
func (b TextBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(textWire{ID: b.ID, Type: BlockTypeText, Text: b.Text})
}

// MarshalJSON writes the tagged wire form
func (b TitleBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(titleWire{ID: b.ID, Type: BlockTypeTitle, Text: b.Text, Level: b.Level})
}

// MarshalJSON writes the tagged wire form. A nil slide list is written as [].
func (b SliderBlock) MarshalJSON() ([]byte, error) {
	slides := b.Slides
	if slides == nil {
		slides = []ImageSlide{}
	}
	return json.Marshal(sliderWire{ID: b.ID, Type: BlockTypeSlider, Slides: slides})
}

// MarshalJSON writes the tagged wire form
func (b ButtonBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(buttonWire{ID: b.ID, Type: BlockTypeButton, Text: b.Text, LinkURL: b.LinkURL})
}

// Blocks is an ordered block sequence in document order
type Blocks []ContentBlock

// MarshalJSON writes a nil sequence as [] rather than null
func (bs Blocks) MarshalJSON() ([]byte, error) {
	if bs == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]ContentBlock(bs))
}

// UnmarshalJSON decodes loosely typed JSON and normalizes it, so a decode never fails on
// malformed block data.
func (bs *Blocks) UnmarshalJSON(data []byte) error {
	*bs = NormalizeJSON(data)
	return nil
}

// Find returns the index of the block with the given id, or -1
func (bs Blocks) Find(id string) int {
	return slices.IndexFunc(bs, func(b ContentBlock) bool {
		return b.BlockID() == id
	})
}

// Clone returns a copy that shares no mutable state with bs
func (bs Blocks) Clone() Blocks {
	if bs == nil {
		return nil
	}
	out := make(Blocks, len(bs))
	for i, b := range bs {
		out[i] = CloneBlock(b)
	}
	return out
}

// CloneBlock copies a block, including its slide list
func CloneBlock(b ContentBlock) ContentBlock {
	c := &cloner{}
	b.Accept(c)
	return c.out
}

type cloner struct {
	out ContentBlock
}

func (c *cloner) VisitText(b TextBlock)     { c.out = b }
func (c *cloner) VisitTitle(b TitleBlock)   { c.out = b }
func (c *cloner) VisitButton(b ButtonBlock) { c.out = b }

func (c *cloner) VisitSlider(b SliderBlock) {
	b.Slides = CloneSlides(b.Slides)
	c.out = b
}

// CloneSlides copies a slide list, including the link pointers
func CloneSlides(slides []ImageSlide) []ImageSlide {
	if slides == nil {
		return nil
	}
	out := make([]ImageSlide, len(slides))
	for i, s := range slides {
		out[i] = s
		if s.LinkURL != nil {
			link := *s.LinkURL
			out[i].LinkURL = &link
		}
	}
	return out
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}
