package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/imgblocks/internal/server"
	"github.com/matzehuels/imgblocks/pkg/workspace"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	cfg := server.Config{Addr: defaultAddr, IdleTTL: workspace.DefaultIdleTTL}
	var noCache bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the JSON HTTP API. Documents are held in memory and are lost when
the server stops.

Routes:
  POST   /api/v1/parse
  POST   /api/v1/documents
  GET    /api/v1/documents/{id}
  DELETE /api/v1/documents/{id}
  PUT    /api/v1/documents/{id}/url
  GET    /api/v1/documents/{id}/diagram?format=svg
  POST   /api/v1/documents/{id}/blocks
  DELETE /api/v1/documents/{id}/blocks/{block}
  POST   /api/v1/documents/{id}/blocks/{block}/up|down|toggle
  PATCH  /api/v1/documents/{id}/blocks/{block}/params
  PUT    /api/v1/documents/{id}/blocks/{block}/effects/{effect}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newDiagramRunner(noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			printInfo("Serving on %s", StyleHighlight.Render(cfg.Addr))
			if cfg.IdleTTL > 0 {
				printDetail("Idle documents expire after %s", cfg.IdleTTL)
			}
			srv := server.New(cfg, workspace.NewStore(), runner, loggerFromContext(cmd.Context()))
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cfg.Addr, "addr", "a", cfg.Addr, "listen address")
	cmd.Flags().BoolVar(&cfg.StrictURLs, "strict", false, "reject source URLs that are not http(s)")
	cmd.Flags().DurationVar(&cfg.IdleTTL, "idle-ttl", cfg.IdleTTL, "evict documents idle this long (0 disables)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the diagram cache")
	return cmd
}

