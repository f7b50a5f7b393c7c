package block

import (
	"strings"

	"github.com/matzehuels/imgblocks/pkg/errors"
)

// Type identifies the kind of transformation a block performs.
type Type string

// Block types.
const (
	Crop     Type = "crop"
	Trim     Type = "trim"
	Gradient Type = "gradient"
	Effects  Type = "effects"
	Quality  Type = "quality"
	Format   Type = "format"
	Dpr      Type = "dpr"
)

// Types lists every block type in palette order.
var Types = []Type{Crop, Trim, Gradient, Effects, Quality, Format, Dpr}

var titles = map[Type]string{
	Crop:     "Crop/Resize",
	Trim:     "Trim",
	Gradient: "Gradient Fade",
	Effects:  "Effects",
	Quality:  "Quality",
	Format:   "Format",
	Dpr:      "DPR",
}

// Valid reports whether t is one of the known block types.
func (t Type) Valid() bool {
	_, ok := titles[t]
	return ok
}

// Title returns the display name of the block type.
func (t Type) Title() string {
	if title, ok := titles[t]; ok {
		return title
	}
	return string(t)
}

// ParseType converts a user-supplied name into a Type.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", errors.New(errors.ErrCodeInvalidBlockType, "unknown block type %q", s)
	}
	return t, nil
}

// Block is one ordered transformation step.
//
// Order mirrors the block's position in its pipeline. Expanded is a
// presentation flag and never affects compilation.
type Block struct {
	ID       int
	Type     Type
	Order    int
	Expanded bool
	Params   Params
}

// New creates an expanded block of type t with the type's default params.
func New(id int, t Type) Block {
	return Block{
		ID:       id,
		Type:     t,
		Expanded: true,
		Params:   Defaults(t),
	}
}

// Clone returns a deep copy of b.
func (b Block) Clone() Block {
	if b.Params != nil {
		b.Params = b.Params.Clone()
	}
	return b
}

// Compile returns the URL tokens for b in their fixed emission order.
// It is pure: calling it twice on an unmodified block yields equal slices.
func Compile(b Block) []string {
	if b.Params == nil {
		return nil
	}
	return b.Params.Tokens()
}

// Segment joins the tokens of b with ",". It returns "" for blocks that
// emit nothing.
func Segment(b Block) string {
	return strings.Join(Compile(b), ",")
}
