package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/libreq/internal/config"
)

func newInitCmd() *cobra.Command {
	var (
		order      string
		mode       string
		strict     bool
		scanSource string
		force      bool
		check      bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file for this library",
		Long: `Write a config file with the library server and form behaviour.

The form variant decides what the request screen looks like:
  • order: group-student-book (pick the student first) or group-book-student
  • mode:  quantity (take the first N copies) or manual (type or scan codes)
  • strict: in manual mode, require the codes to match a declared quantity`,
		Example: `  # Point at the library server, scanning copies by QR code
  libreq init --server https://library.example.edu --mode manual --scan-source ~/frame.jpg

  # Try everything locally against the dev-server
  libreq init --server http://127.0.0.1:5000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := flagConfig
			if path == "" {
				path = config.DefaultPath()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			next := *cfg
			if cmd.Flags().Changed("order") {
				next.Form.Order = order
			}
			if cmd.Flags().Changed("mode") {
				next.Form.Mode = mode
			}
			if cmd.Flags().Changed("strict") {
				next.Form.Strict = strict
			}
			if cmd.Flags().Changed("scan-source") {
				next.Scan.Source = config.ExpandHome(scanSource)
			}
			if err := next.Validate(); err != nil {
				return err
			}

			if check {
				groups, err := client.ListGroups(cmd.Context())
				if err != nil {
					return fmt.Errorf("server check failed: %w", err)
				}
				if len(groups) == 0 {
					return errors.New("server check failed: no groups")
				}
				ok("Server reachable (%d groups)", len(groups))
			}

			if err := config.Save(&next, path); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}
			ok("Wrote %s", path)
			fmt.Printf("  %-8s %s\n", "server:", next.Server.BaseURL)
			fmt.Printf("  %-8s %s, %s\n", "form:", next.Form.Order, next.Form.Mode)
			fmt.Println()
			fmt.Println("Next: run", color.CyanString("libreq"), "to open the request form")
			return nil
		},
	}

	cmd.Flags().StringVar(&order, "order", config.OrderStudentFirst, "Field order: group-student-book | group-book-student")
	cmd.Flags().StringVar(&mode, "mode", config.ModeQuantity, "Copy selection: quantity | manual")
	cmd.Flags().BoolVar(&strict, "strict", false, "Require scanned codes to match the declared quantity")
	cmd.Flags().StringVar(&scanSource, "scan-source", "", "Snapshot image or directory read by the QR scanner")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	cmd.Flags().BoolVar(&check, "check", false, "Check that the server answers before writing")
	return cmd
}
