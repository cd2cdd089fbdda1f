package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"trello-project/web-client/config"
	"trello-project/web-client/models"
	"trello-project/web-client/workspace"
)

// loginCmd runs the session flow once from a terminal and optionally lists
// the visible projects with the freshly issued cookies.
func loginCmd() *cobra.Command {
	var (
		email        string
		password     string
		listProjects bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in against the backend and print the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("WEBCLIENT_PASSWORD")
			}
			cfg := config.Load()
			ws, err := workspace.New("cli", cfg, backendTransport(cfg))
			if err != nil {
				return err
			}
			defer ws.Close()

			ctx := cmd.Context()
			if err := ws.Session.Login(ctx, models.Credentials{Email: email, Password: password}); err != nil {
				return errors.New(ws.Session.Error())
			}

			out := map[string]interface{}{"session": ws.Session.Snapshot()}
			if listProjects {
				projects, err := ws.Projects.ListProjects(ctx)
				if err != nil {
					return fmt.Errorf("logged in but listing projects failed: %w", err)
				}
				out["projects"] = projects
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (or WEBCLIENT_PASSWORD)")
	cmd.Flags().BoolVar(&listProjects, "projects", false, "list projects after login")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
