package cli

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/revlens/revlens/internal/config"
	"github.com/revlens/revlens/internal/server"
)

var flagListenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP review service",
	Long:  "Serve the review pipeline over HTTP. POST a unified diff (plus optional file contents) to /api/v1/review and receive structured findings.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		if flagListenAddr != "" {
			cfg.ListenAddr = flagListenAddr
		}

		logger := logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})

		st := openStore(cfg)
		if st != nil {
			defer st.Close()
		}

		srv := server.New(cfg, logger, st)
		if err := srv.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagListenAddr, "listen", "", "Listen address (default :8632)")
	serveCmd.Flags().StringVar(&flagProvider, "provider", "", "LLM provider (anthropic, openai, ollama, lmstudio)")
	serveCmd.Flags().StringVar(&flagModel, "model", "", "Model name")
}
