// Package diagram renders a transformation pipeline as a Graphviz chain.
//
// # Overview
//
// The diagram reads left to right the same way the compiled URL does: the
// base URL, one node per block in order, then the public ID. Blocks that
// contribute no segment are drawn dashed and grey so it is obvious why
// they are missing from the URL.
//
// # Usage
//
//	dot := diagram.ToDOT(loc, p.Blocks())
//	svg, err := diagram.Render(ctx, dot, diagram.FormatSVG)
//
// # DOT Format
//
// The [ToDOT] function produces Graphviz DOT source that can be:
//
//   - Rendered in-process via [Render]
//   - Saved and processed with external Graphviz tools
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process
// rendering, so no Graphviz installation is required.
package diagram
