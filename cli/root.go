package cli

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"trello-project/web-client/config"
	"trello-project/web-client/logging"
	"trello-project/web-client/utils"
)

var Version = "dev"

func NewRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "web-client",
		Short:         "Project-management web client service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := config.LoadEnv(envFile); err != nil {
				logging.Logger.Warnf("Event ID: ENV_FILE_MISSING, Description: No env file at %s, using process environment", envFile)
			}
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load")

	root.AddCommand(serveCmd())
	root.AddCommand(loginCmd())
	root.AddCommand(versionCmd())
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// backendTransport is the breaker and tracing stack shared by all
// workspaces of the process.
func backendTransport(cfg config.Config) http.RoundTripper {
	breaker := utils.NewBreaker(utils.BreakerSettings{
		Name:                "backend-api",
		MaxRequests:         cfg.BreakerMaxRequests,
		Timeout:             cfg.BreakerTimeout,
		ConsecutiveFailures: cfg.BreakerConsecutiveFailures,
	})
	return utils.NewBackendTransport(nil, breaker)
}
