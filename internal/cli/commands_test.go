package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/imgblocks/pkg/block"
	"github.com/matzehuels/imgblocks/pkg/errors"
	"github.com/matzehuels/imgblocks/pkg/location"
	"github.com/matzehuels/imgblocks/pkg/observability"
	"github.com/matzehuels/imgblocks/pkg/pipeline"
)

// run executes the root command with args and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(observability.Reset)

	root := New(io.Discard, LogInfo).RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestBuildURLOnly(t *testing.T) {
	out, err := run(t, "build", testURL, "-q",
		"-b", "crop:width=800,height=600",
		"-b", "effects:sharpen,grayscale",
		"-b", "quality")
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	want := "https://cdn.example.com/c_fill,w_800,h_600/e_grayscale,e_sharpen/q_auto/img.jpg\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestBuildJSON(t *testing.T) {
	out, err := run(t, "build", testURL, "--json", "-b", "dpr:dpr=3.0")
	if err != nil {
		t.Fatalf("build error: %v", err)
	}

	var res buildResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if res.URL != "https://cdn.example.com/dpr_3.0/img.jpg" {
		t.Errorf("url = %q", res.URL)
	}
	if res.Location.Dialect != location.DialectGeneric {
		t.Errorf("dialect = %q, want generic", res.Location.Dialect)
	}
	if len(res.Blocks) != 1 || res.Blocks[0].Segment != "dpr_3.0" {
		t.Errorf("blocks = %+v", res.Blocks)
	}
}

func TestBuildFromRecipe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hero.yaml")
	recipe := `url: https://cdn.example.com/hero.png
blocks:
  - type: trim
    color: white
  - type: format
    format: webp
`
	if err := os.WriteFile(path, []byte(recipe), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "build", "-r", path, "-q", "-b", "dpr")
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	if got, want := strings.TrimSpace(out), "https://cdn.example.com/e_trim::white/f_webp/dpr_2.0/hero.png"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}

	// An argument overrides the recipe's URL.
	out, err = run(t, "build", "https://cdn.example.com/other.png", "-r", path, "-q")
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	if got, want := strings.TrimSpace(out), "https://cdn.example.com/e_trim::white/f_webp/other.png"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"no url", []string{"build", "-b", "crop"}, errors.ErrCodeInvalidInput},
		{"unknown block", []string{"build", testURL, "-b", "blur"}, errors.ErrCodeInvalidBlockType},
		{"bare param", []string{"build", testURL, "-b", "crop:800"}, errors.ErrCodeInvalidParam},
		{"missing recipe", []string{"build", "-r", "missing.toml"}, errors.ErrCodeFileNotFound},
		{"bad recipe extension", []string{"build", "-r", "recipe.txt"}, errors.ErrCodeInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestParseJSON(t *testing.T) {
	out, err := run(t, "parse", "--json", "https://res.cloudinary.com/demo/image/upload/sample.jpg")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	var loc location.Location
	if err := json.Unmarshal([]byte(out), &loc); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	want := location.Parse("https://res.cloudinary.com/demo/image/upload/sample.jpg")
	if loc != want {
		t.Errorf("location = %+v, want %+v", loc, want)
	}
}

func TestDiagramDOT(t *testing.T) {
	out, err := run(t, "diagram", testURL, "-f", "dot", "--no-cache", "-b", "crop", "-b", "effects")
	if err != nil {
		t.Fatalf("diagram error: %v", err)
	}
	for _, want := range []string{"digraph", "c_fill", "(no output)", "img.jpg"} {
		if !strings.Contains(out, want) {
			t.Errorf("DOT output missing %q:\n%s", want, out)
		}
	}
}

func TestDiagramBadFormat(t *testing.T) {
	_, err := run(t, "diagram", testURL, "-f", "gif", "--no-cache")
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("error = %v, want %s", err, errors.ErrCodeInvalidFormat)
	}
}

func TestCachePath(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	out, err := run(t, "cache", "path")
	if err != nil {
		t.Fatalf("cache path error: %v", err)
	}
	want, _ := cacheDir()
	if strings.TrimSpace(out) != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestSourceLoadOrder(t *testing.T) {
	opts := sourceOpts{blocks: []string{"quality", "crop:width=100"}}
	sess, err := opts.load([]string{testURL})
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if sess.source != testURL {
		t.Errorf("source = %q", sess.source)
	}
	if got, want := sess.url(), "https://cdn.example.com/q_auto/c_fill,w_100/img.jpg"; got != want {
		t.Errorf("url() = %q, want %q", got, want)
	}
}

func TestRebuildCommand(t *testing.T) {
	p := pipeline.New()
	crop := p.Add(block.Crop)
	p.UpdateParam(crop, block.KeyWidth, 800)
	p.Add(block.Quality)

	got := rebuildCommand("https://cdn.example.com/my image.jpg", p)
	want := "imgblocks build 'https://cdn.example.com/my image.jpg' -b crop:mode=fill,width=800 -b quality:quality=auto"
	if got != want {
		t.Errorf("rebuildCommand() = %q, want %q", got, want)
	}
}

func TestShellQuote(t *testing.T) {
	tests := []struct{ in, want string }{
		{"plain", "plain"},
		{"", "''"},
		{"a b", "'a b'"},
		{"it's", `'it'\''s'`},
	}
	for _, tt := range tests {
		if got := shellQuote(tt.in); got != tt.want {
			t.Errorf("shellQuote(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
