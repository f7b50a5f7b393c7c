package cli

import (
	"encoding/json"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/matzehuels/imgblocks/pkg/location"
	"github.com/matzehuels/imgblocks/pkg/pipeline"
)

// buildOpts holds the command-line flags for the build command.
type buildOpts struct {
	sourceOpts
	asJSON  bool // machine-readable output
	urlOnly bool // print only the compiled URL
	copy    bool // copy the compiled URL to the clipboard
}

// buildResult is the JSON output of the build command.
type buildResult struct {
	Source   string              `json:"source"`
	Location location.Location   `json:"location"`
	Blocks   []pipeline.Fragment `json:"blocks"`
	URL      string              `json:"url"`
}

// buildCommand creates the build command.
func (c *CLI) buildCommand() *cobra.Command {
	var opts buildOpts

	cmd := &cobra.Command{
		Use:   "build [url]",
		Short: "Compile a transformation URL from a recipe and block specs",
		Long: `Compile a transformation URL. Blocks come from a recipe file (--recipe)
followed by any --block specs, in order.

Block specs take the form type[:key=value,...]. Effects blocks accept bare
effect names:

  crop:mode=fill,width=800,height=600,gravity=auto
  trim:tolerance=10,color=white
  gradient:side=bottom,intensity=0.4
  effects:grayscale,sharpen
  quality:quality=auto:good
  format:format=webp
  dpr:dpr=2.0

Examples:
  imgblocks build https://cdn.example.com/img.jpg -b crop:width=800 -b quality
  imgblocks build --recipe hero.toml --copy
  imgblocks build --recipe hero.yaml https://cdn.example.com/other.jpg --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := opts.load(args)
			if err != nil {
				return err
			}
			url := sess.url()
			loggerFromContext(cmd.Context()).Debug("built url", "blocks", sess.pipeline.Len(), "dialect", sess.loc.Dialect)

			out := cmd.OutOrStdout()
			switch {
			case opts.asJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(buildResult{
					Source:   sess.source,
					Location: sess.loc,
					Blocks:   sess.pipeline.Fragments(),
					URL:      url,
				}); err != nil {
					return err
				}
			case opts.urlOnly:
				fmt.Fprintln(out, url)
			default:
				printLocation(sess.loc)
				printNewline()
				printFragments(sess.pipeline.Fragments())
				printNewline()
				printURL(url)
			}

			if opts.copy && url != "" {
				if err := clipboard.WriteAll(url); err != nil {
					printWarning("Could not copy to clipboard: %v", err)
					return nil
				}
				if !opts.asJSON && !opts.urlOnly {
					printSuccess("Copied to clipboard")
				}
			}
			return nil
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "output as JSON")
	cmd.Flags().BoolVarP(&opts.urlOnly, "url-only", "q", false, "print only the compiled URL")
	cmd.Flags().BoolVarP(&opts.copy, "copy", "c", false, "copy the compiled URL to the clipboard")
	return cmd
}
