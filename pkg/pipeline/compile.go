package pipeline

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/imgblocks/pkg/block"
	"github.com/matzehuels/imgblocks/pkg/location"
	"github.com/matzehuels/imgblocks/pkg/observability"
)

// Fragment is the display form of one block: its identity and the segment
// it contributes to the compiled URL ("" when it contributes nothing).
type Fragment struct {
	ID      int        `json:"id"`
	Type    block.Type `json:"type"`
	Title   string     `json:"title"`
	Order   int        `json:"order"`
	Tokens  []string   `json:"tokens"`
	Segment string     `json:"segment"`
}

// Compile renders the pipeline over loc. See [Compile] for the rules.
func (p *Pipeline) Compile(loc location.Location) string {
	return Compile(loc, p.blocks)
}

// Segments returns the non-empty block segments in Order.
func (p *Pipeline) Segments() []string {
	return Segments(p.blocks)
}

// Fragments returns one fragment per block in sequence order, including
// blocks that emit nothing.
func (p *Pipeline) Fragments() []Fragment {
	out := make([]Fragment, len(p.blocks))
	for i, b := range p.blocks {
		tokens := block.Compile(b)
		out[i] = Fragment{
			ID:      b.ID,
			Type:    b.Type,
			Title:   b.Type.Title(),
			Order:   b.Order,
			Tokens:  tokens,
			Segment: strings.Join(tokens, ","),
		}
	}
	return out
}

// Compile builds the transformation URL for blocks over loc.
//
// Blocks are taken in Order, each is compiled with [block.Segment], empty
// segments are dropped and the rest are joined with "/". The result is
// BaseURL + segments + "/" + PublicID, or BaseURL + PublicID when no block
// emits anything. It returns "" when either half of loc is empty.
func Compile(loc location.Location, blocks []block.Block) string {
	if loc.IsZero() {
		return ""
	}
	start := time.Now()

	segments := Segments(blocks)
	observability.Pipeline().OnCompile(len(blocks), len(segments), time.Since(start))

	if len(segments) == 0 {
		return loc.BaseURL + loc.PublicID
	}
	return loc.BaseURL + strings.Join(segments, "/") + "/" + loc.PublicID
}

// Segments compiles blocks in Order and returns the non-empty segments.
// The input slice is not modified.
func Segments(blocks []block.Block) []string {
	sorted := slices.Clone(blocks)
	slices.SortStableFunc(sorted, func(a, b block.Block) int {
		return cmp.Compare(a.Order, b.Order)
	})

	var segments []string
	for _, b := range sorted {
		if seg := block.Segment(b); seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}
