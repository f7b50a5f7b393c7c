// Package pkg provides the core libraries for imgblocks.
//
// # Overview
//
// imgblocks builds image CDN transformation URLs from an ordered list of
// blocks applied to a source URL. The pkg directory is organized into four
// areas:
//
//  1. Domain: [location], [block] and [pipeline]
//  2. Inputs: [recipe] files and inline block specs
//  3. Sessions and output: [workspace] documents and [render/diagram]
//  4. Infrastructure: [cache], [errors], [observability], [buildinfo]
//
// # Architecture
//
// The data flow through imgblocks:
//
//	source URL ─────→ [location] (base URL + public ID)
//	                       ↓
//	recipe / specs ──→ [pipeline] (ordered blocks, edits)
//	                       ↓
//	    base + seg1/seg2/.../ + publicID
//	                       ↓
//	    URL text, JSON, or a DOT/SVG/PNG diagram
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/imgblocks/pkg/block"
//	    "github.com/matzehuels/imgblocks/pkg/location"
//	    "github.com/matzehuels/imgblocks/pkg/pipeline"
//	)
//
//	p := pipeline.New()
//	crop := p.Add(block.Crop)
//	p.UpdateParam(crop, block.KeyWidth, 800)
//	p.Add(block.Quality)
//
//	url := p.Compile(location.Parse("https://cdn.example.com/img.jpg"))
//	// https://cdn.example.com/c_fill,w_800/q_auto/img.jpg
//
// # Main Packages
//
// [location] - Splits a URL into the part transformations are inserted after
// and the asset path. Recognizes vendor "/images/" URLs with an optional
// "t_<name>" template, REST-style CDN URLs after their fixed three-segment
// prefix (transformations already in the path stay in the public ID), and
// falls back to the last slash.
//
// [block] - The seven block types, their typed parameters and the tokens
// each emits.
//
// [pipeline] - Ordered block editing (add, move, remove, toggle, update)
// and URL compilation.
//
// [recipe] - TOML, YAML and JSON pipeline definitions plus the inline
// "type:key=value" form used on the command line.
//
// [workspace] - Concurrent-safe store of independent editing documents used
// by the HTTP API.
//
// [render/diagram] - Graphviz rendering of a pipeline as base → blocks →
// public ID, with a cached runner.
//
// [cache] - File and null caches with versioned key scoping.
//
// [errors] - Coded errors shared by the CLI and the API.
//
// [observability] - Hook interfaces for mutations, rendering, caching and
// HTTP requests.
//
// [location]: github.com/matzehuels/imgblocks/pkg/location
// [block]: github.com/matzehuels/imgblocks/pkg/block
// [pipeline]: github.com/matzehuels/imgblocks/pkg/pipeline
// [recipe]: github.com/matzehuels/imgblocks/pkg/recipe
// [workspace]: github.com/matzehuels/imgblocks/pkg/workspace
// [render/diagram]: github.com/matzehuels/imgblocks/pkg/render/diagram
// [cache]: github.com/matzehuels/imgblocks/pkg/cache
// [errors]: github.com/matzehuels/imgblocks/pkg/errors
// [observability]: github.com/matzehuels/imgblocks/pkg/observability
// [buildinfo]: github.com/matzehuels/imgblocks/pkg/buildinfo
package pkg
