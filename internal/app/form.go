package app

import (
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/libreq/internal/form"
	"github.com/blackwell-systems/libreq/internal/tui"
)

// runForm opens the interactive request form.
func runForm(cmd *cobra.Command) error {
	return tui.RunForm(tui.Options{
		Context:         cmd.Context(),
		Directory:       client,
		Submitter:       client,
		Variant:         form.VariantFromConfig(cfg.Form),
		StudentDebounce: cfg.Form.Debounce.Students,
		BookDebounce:    cfg.Form.Debounce.Books,
		ScanSource:      cfg.Scan.Source,
		ScanInterval:    cfg.Scan.Interval,
		StatusURL:       client.StatusURL,
		Logger:          logger,
	})
}
