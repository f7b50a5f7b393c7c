// Package pipeline provides the ordered transformation pipeline for imgblocks.
//
// A [Pipeline] owns an ordered sequence of [block.Block] values and exposes
// the editing operations a front end needs: add, move up/down, remove,
// toggle the expanded flag, update a parameter and toggle an effect. After
// every structural change the blocks' Order fields are renumbered so they
// always equal 0..n-1 in sequence order.
//
// # Compilation
//
// [Pipeline.Compile] turns the blocks plus a [location.Location] into the
// final URL:
//
//	base + seg1 + "/" + seg2 + ... + "/" + publicID
//
// Each segment is [block.Segment] of one block; blocks that emit nothing are
// skipped. With no segments the result is base+publicID, and when either
// half of the location is empty the result is "".
//
// # Usage
//
//	p := pipeline.New()
//	crop := p.Add(block.Crop)
//	p.UpdateParam(crop, block.KeyWidth, 800)
//	p.Add(block.Quality)
//	url := p.Compile(location.Parse("https://cdn.example.com/img.jpg"))
//	// https://cdn.example.com/c_fill,w_800/q_auto/img.jpg
//
// # Error handling
//
// Operations never fail. Unknown block IDs, moving the first block up or the
// last block down, and toggling effects on a non-effects block are no-ops
// that report false.
//
// # Concurrency
//
// A Pipeline is not safe for concurrent use. Callers that share one across
// goroutines (such as the HTTP workspace) must serialize access. Separate
// pipelines share no state.
package pipeline

import (
	"slices"

	"github.com/matzehuels/imgblocks/pkg/block"
	"github.com/matzehuels/imgblocks/pkg/observability"
)

// Mutation names reported to observability hooks.
const (
	OpAdd      = "add"
	OpMoveUp   = "move_up"
	OpMoveDown = "move_down"
	OpRemove   = "remove"
	OpToggle   = "toggle"
	OpUpdate   = "update"
	OpEffect   = "effect"

	// NoopSuffix is appended to the operation name when nothing changed.
	NoopSuffix = "_noop"
)

// Pipeline is an ordered, exclusively owned sequence of blocks.
// The zero value is an empty pipeline ready for use.
type Pipeline struct {
	blocks []block.Block
	nextID int
}

// New creates an empty pipeline.
func New() *Pipeline {
	return &Pipeline{}
}

// Add appends a new block of type t with the type's default params and
// returns its ID. IDs are never reused, even after removal.
func (p *Pipeline) Add(t block.Type) int {
	id := p.nextID
	p.nextID++

	b := block.New(id, t)
	b.Order = len(p.blocks)
	p.blocks = append(p.blocks, b)

	observability.Pipeline().OnMutation(OpAdd, id)
	return id
}

// MoveUp swaps the block with its predecessor. It reports false when the
// block is first or unknown.
func (p *Pipeline) MoveUp(id int) bool {
	i := p.index(id)
	if i <= 0 {
		p.noop(OpMoveUp, id)
		return false
	}
	p.blocks[i], p.blocks[i-1] = p.blocks[i-1], p.blocks[i]
	p.renumber()
	observability.Pipeline().OnMutation(OpMoveUp, id)
	return true
}

// MoveDown swaps the block with its successor. It reports false when the
// block is last or unknown.
func (p *Pipeline) MoveDown(id int) bool {
	i := p.index(id)
	if i < 0 || i >= len(p.blocks)-1 {
		p.noop(OpMoveDown, id)
		return false
	}
	p.blocks[i], p.blocks[i+1] = p.blocks[i+1], p.blocks[i]
	p.renumber()
	observability.Pipeline().OnMutation(OpMoveDown, id)
	return true
}

// Remove deletes the block. It reports false when the block is unknown.
func (p *Pipeline) Remove(id int) bool {
	i := p.index(id)
	if i < 0 {
		p.noop(OpRemove, id)
		return false
	}
	p.blocks = slices.Delete(p.blocks, i, i+1)
	p.renumber()
	observability.Pipeline().OnMutation(OpRemove, id)
	return true
}

// ToggleExpanded flips the block's presentation flag.
func (p *Pipeline) ToggleExpanded(id int) bool {
	i := p.index(id)
	if i < 0 {
		p.noop(OpToggle, id)
		return false
	}
	p.blocks[i].Expanded = !p.blocks[i].Expanded
	observability.Pipeline().OnMutation(OpToggle, id)
	return true
}

// UpdateParam stores value under key on the block. Any key is accepted;
// see [block.Params] for how unknown keys are kept. Values are converted
// with [block.FormatValue].
func (p *Pipeline) UpdateParam(id int, key string, value any) bool {
	i := p.index(id)
	if i < 0 {
		p.noop(OpUpdate, id)
		return false
	}
	p.blocks[i].Params.Set(key, block.FormatValue(value))
	observability.Pipeline().OnMutation(OpUpdate, id)
	return true
}

// ToggleEffect enables or disables a named effect on an effects block.
// Repeating the same toggle is a no-op. It reports false when the block is
// unknown or not an effects block.
func (p *Pipeline) ToggleEffect(id int, name string, enabled bool) bool {
	i := p.index(id)
	if i < 0 {
		p.noop(OpEffect, id)
		return false
	}
	fx, ok := p.blocks[i].Params.(*block.EffectsParams)
	if !ok {
		p.noop(OpEffect, id)
		return false
	}
	fx.Toggle(name, enabled)
	observability.Pipeline().OnMutation(OpEffect, id)
	return true
}

// Len returns the number of blocks.
func (p *Pipeline) Len() int {
	return len(p.blocks)
}

// Blocks returns a deep copy of the blocks in sequence order.
func (p *Pipeline) Blocks() []block.Block {
	out := make([]block.Block, len(p.blocks))
	for i, b := range p.blocks {
		out[i] = b.Clone()
	}
	return out
}

// Block returns a deep copy of the block with the given ID.
func (p *Pipeline) Block(id int) (block.Block, bool) {
	i := p.index(id)
	if i < 0 {
		return block.Block{}, false
	}
	return p.blocks[i].Clone(), true
}

func (p *Pipeline) index(id int) int {
	return slices.IndexFunc(p.blocks, func(b block.Block) bool { return b.ID == id })
}

// renumber sets each block's Order to its position.
func (p *Pipeline) renumber() {
	for i := range p.blocks {
		p.blocks[i].Order = i
	}
}

// noop reports an operation that changed nothing.
func (p *Pipeline) noop(op string, id int) {
	observability.Pipeline().OnMutation(op+NoopSuffix, id)
}
