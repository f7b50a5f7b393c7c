package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/imgblocks/pkg/errors"
	"github.com/matzehuels/imgblocks/pkg/location"
	"github.com/matzehuels/imgblocks/pkg/pipeline"
	"github.com/matzehuels/imgblocks/pkg/recipe"
)

// sourceOpts holds the flags shared by commands that start from a URL
// and a list of blocks.
type sourceOpts struct {
	recipe string   // recipe file (.toml, .yaml, .yml, .json)
	blocks []string // inline block specs, appended after the recipe's
}

func (o *sourceOpts) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.recipe, "recipe", "r", "", "recipe file (.toml, .yaml, .yml, .json)")
	cmd.Flags().StringArrayVarP(&o.blocks, "block", "b", nil, "block spec, e.g. crop:width=800,height=600 (repeatable)")
}

// session is a pipeline over a parsed source URL.
type session struct {
	source   string
	loc      location.Location
	pipeline *pipeline.Pipeline
}

// load resolves the source URL (argument first, then the recipe's url)
// and builds the pipeline from the recipe followed by --block specs.
func (o *sourceOpts) load(args []string) (*session, error) {
	rec := &recipe.Recipe{}
	if o.recipe != "" {
		loaded, err := recipe.Load(o.recipe)
		if err != nil {
			return nil, err
		}
		rec = loaded
	}
	for _, spec := range o.blocks {
		step, err := recipe.ParseStep(spec)
		if err != nil {
			return nil, err
		}
		rec.Steps = append(rec.Steps, step)
	}

	source := rec.URL
	if len(args) > 0 {
		source = args[0]
	}
	if source == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no source URL: pass one as an argument or set url in the recipe")
	}

	p := pipeline.New()
	if err := rec.Apply(p); err != nil {
		return nil, err
	}
	return &session{source: source, loc: location.Parse(source), pipeline: p}, nil
}

// url compiles the session's pipeline.
func (s *session) url() string {
	return s.pipeline.Compile(s.loc)
}
