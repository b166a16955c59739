package app

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/libreq/internal/directory"
)

func newStatusCmd() *cobra.Command {
	var open bool

	cmd := &cobra.Command{
		Use:   "status <request-id | reply>",
		Short: "Show where to check the status of a request",
		Long: `Print the status page URL of a request.

The argument may be the request id or the server reply it came in,
e.g. "Запрос #42 отправлен!".`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := strings.Join(args, " ")
			id := directory.ParseRequestID(raw)
			if id == "" {
				if _, err := parseID("request", raw); err != nil {
					return err
				}
				id = strings.TrimSpace(raw)
			}

			url := client.StatusURL(id)
			header("Запрос #%s", id)
			ok("%s", url)

			if open {
				return openURL(url)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&open, "open", false, "Open the status page in the browser")
	return cmd
}
