package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/imgblocks/pkg/render/diagram"
)

// diagramOpts holds the command-line flags for the diagram command.
type diagramOpts struct {
	sourceOpts
	format   string // dot, svg or png
	output   string // output file path (stdout if empty)
	detailed bool   // include block params in node labels
	noCache  bool   // bypass the diagram cache
}

// diagramCommand creates the diagram command.
func (c *CLI) diagramCommand() *cobra.Command {
	opts := diagramOpts{format: string(diagram.FormatSVG)}

	cmd := &cobra.Command{
		Use:   "diagram [url]",
		Short: "Render the pipeline as a Graphviz diagram",
		Long: `Render the pipeline as a left-to-right diagram: base URL, one node per
block with the segment it contributes, then the public ID.

Examples:
  imgblocks diagram --recipe hero.toml -o hero.svg
  imgblocks diagram https://cdn.example.com/img.jpg -b crop -b quality -f dot`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := diagram.ParseFormat(opts.format)
			if err != nil {
				return err
			}
			sess, err := opts.load(args)
			if err != nil {
				return err
			}

			runner, err := c.newDiagramRunner(opts.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			ctx := cmd.Context()
			prog := newProgress(loggerFromContext(ctx))
			var spinner *Spinner
			if opts.output != "" {
				spinner = newSpinner(ctx, os.Stderr, fmt.Sprintf("Rendering %s...", format))
				spinner.Start()
			}

			res, err := runner.Run(ctx, sess.loc, sess.pipeline.Blocks(), format, diagram.Options{Detailed: opts.detailed})
			if err != nil {
				if spinner != nil {
					cancelled := spinner.Cancelled()
					spinner.Stop()
					if cancelled {
						return ctx.Err()
					}
				}
				return err
			}

			if opts.output == "" {
				_, err := cmd.OutOrStdout().Write(res.Data)
				return err
			}
			if err := os.WriteFile(opts.output, res.Data, 0o644); err != nil {
				spinner.Stop()
				return fmt.Errorf("write %s: %w", opts.output, err)
			}
			status := "rendered"
			if res.CacheHit {
				status = "cached"
			}
			prog.done(fmt.Sprintf("Diagram %s", status))
			spinner.StopWithSuccess(fmt.Sprintf("Wrote %s diagram", format))
			printFile(opts.output)
			return nil
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: dot, svg, png")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include block parameters in node labels")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the diagram cache")
	return cmd
}
