package app

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/libreq/internal/devserver"
)

func newDevServerCmd() *cobra.Command {
	var (
		addr     string
		fixtures string
	)

	cmd := &cobra.Command{
		Use:   "dev-server",
		Short: "Run a local library server with fixture data",
		Long: `Serve the library endpoints from a YAML fixture file (or the built-in
sample) for demos and local testing. Requests are kept in memory only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = cfg.Dev.Addr
			}
			if fixtures == "" {
				fixtures = cfg.Dev.Fixtures
			}

			var fx *devserver.Fixtures
			var err error
			if fixtures != "" {
				fx, err = devserver.LoadFixtures(fixtures)
			} else {
				fx, err = devserver.SampleFixtures()
			}
			if err != nil {
				return fmt.Errorf("loading fixtures: %w", err)
			}

			if cfg.Log.Level != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}

			header("libreq dev-server")
			fmt.Printf("  %-10s http://%s\n", "listening:", addr)
			fmt.Printf("  %-10s %d groups, %d students, %d books\n", "fixtures:",
				len(fx.Groups), len(fx.Students), len(fx.Books))

			if err := devserver.New(fx, logger).ListenAndServe(cmd.Context(), addr); err != nil {
				return err
			}
			ok("Stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: dev.addr)")
	cmd.Flags().StringVar(&fixtures, "fixtures", "", "Fixture file (default: built-in sample)")
	return cmd
}
