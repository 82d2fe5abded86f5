package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dotcommander/assess/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scoring engine over HTTP",
		Long: `Start an HTTP server exposing:

  POST /api/assessments/score   score a submission
  GET  /api/assessments/types   list assessment types
  GET  /healthz                 liveness
  GET  /metrics                 Prometheus metrics`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{logLevelAnnotation: "info"},
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			srv, err := server.New(newEngine(), cfg.Server, logger, reg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}

	cmd.Flags().String("addr", ":8080", "Listen address")
	cmd.Flags().Bool("cors", false, "Allow cross-origin requests")
	cmd.Flags().Bool("debug", false, "Run gin in debug mode")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.enableCors", cmd.Flags().Lookup("cors"))
	_ = viper.BindPFlag("server.debug", cmd.Flags().Lookup("debug"))
	return cmd
}
