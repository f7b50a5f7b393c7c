// Package recipe loads pipeline definitions from files and inline specs.
//
// A recipe names a source URL and an ordered list of blocks. It can be
// written in TOML, YAML or JSON:
//
//	url = "https://res.cloudinary.com/demo/image/upload/sample.jpg"
//
//	[[block]]
//	type = "crop"
//	width = 800
//	height = 600
//
//	[[block]]
//	type = "effects"
//	effects = ["grayscale", "sharpen"]
//
// YAML and JSON use a "blocks" list with the same entries. Every key other
// than "type" is a block parameter.
//
// The CLI also accepts inline block specs, see [ParseStep].
//
// Recipes are inputs only. Applying one replays Add, UpdateParam and
// ToggleEffect on a [pipeline.Pipeline]; nothing is written back.
package recipe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"

	"github.com/matzehuels/imgblocks/pkg/block"
	"github.com/matzehuels/imgblocks/pkg/errors"
	"github.com/matzehuels/imgblocks/pkg/pipeline"
)

// Format is a recipe file encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the encoding from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported recipe extension %q", filepath.Ext(path))
	}
}

// Recipe is a decoded pipeline definition.
type Recipe struct {
	URL   string `json:"url,omitempty"`
	Steps []Step `json:"blocks"`
}

// Step adds one block and sets its parameters in order.
type Step struct {
	Type   string  `json:"type"`
	Params []Param `json:"params,omitempty"`
}

// Param is one key/value assignment. Values are already formatted with
// [block.FormatValue].
type Param struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// raw is the shared decode target. Each format names the block list the
// way its users expect.
type raw struct {
	URL    string           `toml:"url" yaml:"url" json:"url"`
	Blocks []map[string]any `toml:"block" yaml:"blocks" json:"blocks"`
}

// Load reads and decodes the recipe at path.
func Load(path string) (*Recipe, error) {
	if err := errors.ValidateRecipePath(path); err != nil {
		return nil, err
	}
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "recipe %s not found", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read recipe %s", path)
	}
	return Decode(data, format)
}

// Decode parses data in the given format.
func Decode(data []byte, format Format) (*Recipe, error) {
	var r raw
	var err error
	switch format {
	case FormatTOML:
		err = toml.Unmarshal(data, &r)
	case FormatYAML:
		err = yaml.Unmarshal(data, &r)
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		err = dec.Decode(&r)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported recipe format %q", format)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRecipe, err, "decode %s recipe", format)
	}

	rec := &Recipe{URL: strings.TrimSpace(r.URL)}
	for i, entry := range r.Blocks {
		step, err := stepFromMap(entry)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidRecipe, err, "block %d", i+1)
		}
		rec.Steps = append(rec.Steps, step)
	}
	return rec, nil
}

func stepFromMap(m map[string]any) (Step, error) {
	typ, ok := m["type"].(string)
	if !ok || typ == "" {
		return Step{}, errors.New(errors.ErrCodeInvalidRecipe, "missing block type")
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		if k != "type" {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	step := Step{Type: typ}
	for _, k := range keys {
		step.Params = append(step.Params, Param{Key: k, Value: block.FormatValue(m[k])})
	}
	return step, nil
}

// ParseStep parses an inline block spec.
//
//	crop
//	crop:width=800,height=600,gravity=auto
//	effects:grayscale,sharpen
//	effects:upscale,sharpen=false
//
// Bare names are only accepted for effects blocks, where they enable the
// named effect.
func ParseStep(spec string) (Step, error) {
	name, rest, _ := strings.Cut(strings.TrimSpace(spec), ":")
	t, err := block.ParseType(name)
	if err != nil {
		return Step{}, err
	}

	step := Step{Type: string(t)}
	if rest == "" {
		return step, nil
	}
	for _, part := range strings.Split(rest, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, found := strings.Cut(part, "=")
		if !found {
			if t != block.Effects {
				return Step{}, errors.New(errors.ErrCodeInvalidParam, "expected key=value in %q", part)
			}
			key, value = part, "true"
		}
		step.Params = append(step.Params, Param{Key: strings.TrimSpace(key), Value: strings.TrimSpace(value)})
	}
	return step, nil
}

// Apply replays the recipe's steps onto p. Steps are validated before
// anything is added, so a failing recipe leaves p unchanged.
func (r *Recipe) Apply(p *pipeline.Pipeline) error {
	types := make([]block.Type, len(r.Steps))
	for i, step := range r.Steps {
		t, err := block.ParseType(step.Type)
		if err != nil {
			return err
		}
		for _, param := range step.Params {
			if err := errors.ValidateParamKey(param.Key); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidParam, err, "block %d (%s)", i+1, t)
			}
		}
		types[i] = t
	}

	for i, step := range r.Steps {
		id := p.Add(types[i])
		for _, param := range step.Params {
			applyParam(p, id, types[i], param)
		}
	}
	return nil
}

// applyParam routes effect flags to ToggleEffect and everything else to
// UpdateParam.
func applyParam(p *pipeline.Pipeline, id int, t block.Type, param Param) {
	if t == block.Effects && param.Key != block.KeyEffects {
		if enabled, ok := parseFlag(param.Value); ok {
			p.ToggleEffect(id, param.Key, enabled)
			return
		}
	}
	p.UpdateParam(id, param.Key, param.Value)
}

func parseFlag(s string) (enabled, ok bool) {
	switch strings.ToLower(s) {
	case "true", "on", "yes", "1":
		return true, true
	case "", "false", "off", "no", "0":
		return false, true
	}
	return false, false
}

// String renders the step back in inline spec form.
func (s Step) String() string {
	if len(s.Params) == 0 {
		return s.Type
	}
	parts := make([]string, len(s.Params))
	for i, p := range s.Params {
		parts[i] = fmt.Sprintf("%s=%s", p.Key, p.Value)
	}
	return s.Type + ":" + strings.Join(parts, ",")
}

// StepFromBlock captures b's current params as a step, so that applying
// the step to an empty pipeline reproduces b's segment. Unset params are
// omitted unless the type defaults them, in which case they are written as
// "key=" to clear the default. An effects block lists its enabled effects
// as flags.
func StepFromBlock(b block.Block) Step {
	step := Step{Type: string(b.Type)}
	if fx, ok := b.Params.(*block.EffectsParams); ok {
		for _, name := range fx.Names() {
			step.Params = append(step.Params, Param{Key: name, Value: "true"})
		}
		return step
	}

	defaults := block.Defaults(b.Type)
	values := b.Params.Values()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		v := block.FormatValue(values[k])
		if v == "" {
			if def, ok := defaults.Get(k); !ok || def == "" {
				continue
			}
		}
		step.Params = append(step.Params, Param{Key: k, Value: v})
	}
	return step
}
