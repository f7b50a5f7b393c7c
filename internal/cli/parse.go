package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/matzehuels/imgblocks/pkg/location"
)

// parseCommand creates the parse command.
func (c *CLI) parseCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "parse <url>",
		Short: "Split an image URL into base URL and public ID",
		Long: `Split an image URL into the base URL (everything transformations are
inserted after) and the public ID (the asset path), and report which URL
dialect was recognized.

Examples:
  imgblocks parse https://res.cloudinary.com/demo/image/upload/sample.jpg
  imgblocks parse --json https://www.chanel.com/images/t_one///q_auto/bag.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc := location.Parse(args[0])
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(loc)
			}
			printLocation(loc)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}
