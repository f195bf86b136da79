package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ginjaninja78/revenue-xml/internal/server"
)

// serveCmd runs the local JSON API used by desktop and browser shells.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the local JSON API",
	Long: `Serve the local JSON API (GET /api/v1/outlets, GET /api/v1/days,
POST /api/v1/generate). The listen address defaults to server.addr of the
settings (127.0.0.1:8765) and can be overridden with --addr or REVXML_ADDR.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, cat, conv, err := newConverter()
		if err != nil {
			return err
		}

		if !viper.GetBool("verbose") {
			gin.SetMode(gin.ReleaseMode)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return server.New(cfg, cat, conv, logger).Run(ctx, viper.GetString("addr"))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default: server.addr from the settings)")
	if err := viper.BindPFlag("addr", serveCmd.Flags().Lookup("addr")); err != nil {
		panic(err)
	}
}
