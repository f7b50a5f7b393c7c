package diagram

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/imgblocks/pkg/block"
	"github.com/matzehuels/imgblocks/pkg/cache"
	"github.com/matzehuels/imgblocks/pkg/errors"
	"github.com/matzehuels/imgblocks/pkg/location"
	"github.com/matzehuels/imgblocks/pkg/observability"
)

var testLoc = location.Location{BaseURL: "https://cdn.example.com/", PublicID: "img.jpg"}

func testBlocks() []block.Block {
	crop := block.New(0, block.Crop)
	crop.Params.Set(block.KeyWidth, "800")
	crop.Order = 1
	fx := block.New(1, block.Effects)
	fx.Order = 0
	return []block.Block{crop, fx}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testLoc, testBlocks(), Options{})

	for _, want := range []string{
		"digraph G {",
		"rankdir=LR;",
		`"base" [label="https://cdn.example.com/"`,
		`"public_id" [label="img.jpg"`,
		`"block_0" [label="2. Crop/Resize\nc_fill,w_800"]`,
		`"block_1" [label="1. Effects\n(no output)", style="rounded,filled,dashed"`,
		`"base" -> "block_1";`,
		`"block_1" -> "block_0";`,
		`"block_0" -> "public_id";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q\n%s", want, dot)
		}
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(testLoc, testBlocks(), Options{Detailed: true})
	if !strings.Contains(dot, `width: 800`) {
		t.Errorf("detailed DOT should list params:\n%s", dot)
	}
}

func TestToDOTEmpty(t *testing.T) {
	dot := ToDOT(location.Location{}, nil, Options{})
	if !strings.Contains(dot, `"base" -> "public_id";`) {
		t.Errorf("empty pipeline should link base to public id:\n%s", dot)
	}
	if !strings.Contains(dot, `label="(empty)"`) {
		t.Errorf("missing location halves should be labelled:\n%s", dot)
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"dot", "SVG", "png"} {
		if _, err := ParseFormat(s); err != nil {
			t.Errorf("ParseFormat(%q) error = %v", s, err)
		}
	}
	if _, err := ParseFormat("pdf"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("ParseFormat(pdf) error = %v", err)
	}
}

type renderRecorder struct {
	observability.NoopRenderHooks
	started, completed int
	lastErr            error
}

func (r *renderRecorder) OnRenderStart(context.Context, string, int) { r.started++ }
func (r *renderRecorder) OnRenderComplete(_ context.Context, _ string, _ time.Duration, err error) {
	r.completed++
	r.lastErr = err
}

func TestRenderDOTPassthrough(t *testing.T) {
	rec := &renderRecorder{}
	observability.SetRenderHooks(rec)
	defer observability.Reset()

	dot := ToDOT(testLoc, testBlocks(), Options{})
	out, err := Render(context.Background(), dot, FormatDOT)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if string(out) != dot {
		t.Error("FormatDOT should return the source unchanged")
	}
	if rec.started != 1 || rec.completed != 1 || rec.lastErr != nil {
		t.Errorf("hooks = %+v", rec)
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	rec := &renderRecorder{}
	observability.SetRenderHooks(rec)
	defer observability.Reset()

	if _, err := Render(context.Background(), "digraph G {}", Format("gif")); err == nil {
		t.Fatal("Render() should reject unknown formats")
	}
	if rec.lastErr == nil {
		t.Error("completion hook should receive the error")
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(testLoc, testBlocks(), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG() error = %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Errorf("output is not SVG: %.80s", svg)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 100.50 200.00" xmlns="x"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.50 200.00" width="100" height="200"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox() =\n%s\nwant\n%s", got, want)
	}
}

func TestRunnerCaches(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, nil)
	defer r.Close()

	first, err := r.Run(ctx, testLoc, testBlocks(), FormatSVG, Options{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if first.CacheHit {
		t.Error("first render should miss")
	}

	second, err := r.Run(ctx, testLoc, testBlocks(), FormatSVG, Options{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !second.CacheHit {
		t.Error("second render should hit")
	}
	if !bytes.Equal(first.Data, second.Data) {
		t.Error("cached data differs from rendered data")
	}
}

func TestRunnerDOTSkipsCache(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Run(context.Background(), testLoc, nil, FormatDOT, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheHit || string(res.Data) != res.DOT {
		t.Errorf("DOT result = %+v", res)
	}
}
