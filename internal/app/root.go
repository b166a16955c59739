package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blackwell-systems/libreq/internal/config"
	"github.com/blackwell-systems/libreq/internal/directory"
	"github.com/blackwell-systems/libreq/internal/logging"
	"github.com/blackwell-systems/libreq/internal/tui"
	"github.com/blackwell-systems/libreq/internal/util"
)

var (
	cfg    *config.Config
	client *directory.Client
	logger = zap.NewNop()

	flagNoColor       bool
	flagNoInteractive bool
	flagConfig        string
	flagServer        string
)

var rootCmd = &cobra.Command{
	Use:   "libreq",
	Short: "Request books from the school library",
	Long: `libreq files book-lending requests with the school library.

Pick a group, a student and a book, attach the copies you are taking
(by quantity or by scanning their QR codes) and send the request.

Run 'libreq' with no arguments to open the interactive form.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if tui.ShouldUseTUI(cmd) {
			return runForm(cmd)
		}
		return cmd.Help()
	},
}

// Execute is the entry point called from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagNoInteractive, "no-interactive", false, "Disable interactive TUI mode")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/libreq/config.yml)")
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "Library server URL (overrides server.base_url)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		util.InitColor(flagNoColor)

		var err error
		cfg, err = config.LoadFile(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if flagServer != "" {
			cfg.Server.BaseURL = flagServer
		}

		// The form owns the terminal, so its logs go to the log file.
		interactive := cmd == rootCmd && tui.ShouldUseTUI(cmd)
		logger, err = logging.New(cfg.Log, interactive)
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}

		client = directory.New(cfg.Server.BaseURL, cfg.Server.Timeout,
			directory.WithLogger(logger),
			directory.WithCollation(cfg.Form.EffectiveCollation()),
			directory.WithUserAgent("libreq/"+appVersion),
		)
		return nil
	}

	rootCmd.AddCommand(
		newInitCmd(),
		newGroupsCmd(),
		newBooksCmd(),
		newStudentsCmd(),
		newCopiesCmd(),
		newRequestCmd(),
		newStatusCmd(),
		newScanCmd(),
		newDevServerCmd(),
		newVersionCmd(),
		newCompletionCmd(),
	)
}

// ok prints a green success line.
func ok(format string, a ...interface{}) {
	fmt.Println(color.GreenString("✓"), fmt.Sprintf(format, a...))
}

// warn prints a yellow warning line.
func warn(format string, a ...interface{}) {
	fmt.Fprintln(os.Stderr, color.YellowString("!"), fmt.Sprintf(format, a...))
}

// fail prints a red error line to stderr.
func fail(format string, a ...interface{}) {
	fmt.Fprintln(os.Stderr, color.RedString("✗"), fmt.Sprintf(format, a...))
}

// header prints a cyan section heading.
func header(format string, a ...interface{}) {
	fmt.Println(color.CyanString(fmt.Sprintf(format, a...)))
}
