package cli

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/imgblocks/pkg/pipeline"
	"github.com/matzehuels/imgblocks/pkg/recipe"
)

// editCommand creates the interactive editor command.
func (c *CLI) editCommand() *cobra.Command {
	var opts sourceOpts

	cmd := &cobra.Command{
		Use:   "edit [url]",
		Short: "Edit a pipeline interactively",
		Long: `Open a terminal editor over a pipeline. The compiled URL updates as
blocks are added, moved, removed and configured.

The pipeline starts from --recipe and --block when given. On exit the final
URL is printed together with a build command that reproduces it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := opts.load(args)
			if err != nil {
				return err
			}

			p := tea.NewProgram(NewEditorModel(sess.pipeline, sess.loc), tea.WithContext(cmd.Context()))
			finalModel, err := p.Run()
			if err != nil {
				return err
			}

			fm, ok := finalModel.(EditorModel)
			if !ok {
				return nil
			}
			printFragments(fm.Pipeline.Fragments())
			printNewline()
			printURL(fm.URL())
			if fm.Pipeline.Len() > 0 {
				printNewline()
				printNextStep("Rebuild with", rebuildCommand(sess.source, fm.Pipeline))
			}
			return nil
		},
	}

	opts.addFlags(cmd)
	return cmd
}

// rebuildCommand renders a build invocation that reproduces p.
func rebuildCommand(source string, p *pipeline.Pipeline) string {
	parts := []string{appName, "build", shellQuote(source)}
	for _, b := range p.Blocks() {
		parts = append(parts, "-b", shellQuote(recipe.StepFromBlock(b).String()))
	}
	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n'\"\\$`&|;<>()*?#~!") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
