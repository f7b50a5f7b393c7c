package diagram

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/imgblocks/pkg/block"
	"github.com/matzehuels/imgblocks/pkg/errors"
	"github.com/matzehuels/imgblocks/pkg/location"
	"github.com/matzehuels/imgblocks/pkg/observability"
)

// Format is an output format for [Render].
type Format string

const (
	FormatDOT Format = "dot"
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// Formats lists the supported output formats.
var Formats = []Format{FormatDOT, FormatSVG, FormatPNG}

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(s))
	if !slices.Contains(Formats, f) {
		return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported diagram format %q (want dot, svg or png)", s)
	}
	return f, nil
}

// Options configures diagram generation.
type Options struct {
	// Detailed adds each block's parameters below its title.
	Detailed bool
}

// ToDOT converts a location and its blocks to Graphviz DOT source.
// Blocks are drawn in Order; the input slice is not modified.
func ToDOT(loc location.Location, blocks []block.Block, opts Options) string {
	sorted := slices.Clone(blocks)
	slices.SortStableFunc(sorted, func(a, b block.Block) int { return cmp.Compare(a.Order, b.Order) })

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [arrowsize=0.7];\n")
	buf.WriteString("\n")

	fmt.Fprintf(&buf, "  \"base\" [label=%q, shape=note, fillcolor=\"#eef2ff\"];\n", orPlaceholder(loc.BaseURL))
	for _, b := range sorted {
		fmt.Fprintf(&buf, "  %q [%s];\n", nodeID(b), strings.Join(fmtAttrs(b, opts.Detailed), ", "))
	}
	fmt.Fprintf(&buf, "  \"public_id\" [label=%q, shape=note, fillcolor=\"#ecfdf5\"];\n", orPlaceholder(loc.PublicID))

	buf.WriteString("\n")
	prev := "base"
	for _, b := range sorted {
		fmt.Fprintf(&buf, "  %q -> %q;\n", prev, nodeID(b))
		prev = nodeID(b)
	}
	fmt.Fprintf(&buf, "  %q -> \"public_id\";\n", prev)

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(b block.Block) string {
	return "block_" + strconv.Itoa(b.ID)
}

func orPlaceholder(s string) string {
	if s == "" {
		return "(empty)"
	}
	return s
}

func fmtLabel(b block.Block, detailed bool) string {
	seg := block.Segment(b)
	if seg == "" {
		seg = "(no output)"
	}
	lines := []string{fmt.Sprintf("%d. %s", b.Order+1, b.Type.Title()), seg}
	if detailed && b.Params != nil {
		values := b.Params.Values()
		for _, k := range slices.Sorted(maps.Keys(values)) {
			lines = append(lines, fmt.Sprintf("%s: %s", k, block.FormatValue(values[k])))
		}
	}
	return strings.Join(lines, "\n")
}

func fmtAttrs(b block.Block, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(b, detailed))}
	if block.Segment(b) == "" {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=\"#555555\"")
	}
	return attrs
}

// Render renders DOT source in the given format. FormatDOT returns the
// source unchanged. Start and completion are reported to
// [observability.Render].
func Render(ctx context.Context, dot string, format Format) (out []byte, err error) {
	hooks := observability.Render()
	hooks.OnRenderStart(ctx, string(format), strings.Count(dot, "->"))
	start := time.Now()
	defer func() { hooks.OnRenderComplete(ctx, string(format), time.Since(start), err) }()

	switch format {
	case FormatDOT:
		return []byte(dot), nil
	case FormatSVG:
		svg, err := render(ctx, dot, graphviz.SVG)
		if err != nil {
			return nil, err
		}
		return normalizeViewBox(svg), nil
	case FormatPNG:
		return render(ctx, dot, graphviz.PNG)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported diagram format %q", format)
	}
}

// RenderSVG renders DOT source to SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	return Render(ctx, dot, FormatSVG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render %s", format)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root tag to a zero-origin viewBox with
// matching pixel size.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
