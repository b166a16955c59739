package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/libreq/internal/form"
	"github.com/blackwell-systems/libreq/internal/scan"
)

func newScanCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "scan [image | dir]...",
		Short: "Decode copy codes from QR images",
		Long: `Decode copy codes from QR images and print each distinct code once.

Directories are read as a batch of images. With --watch the snapshot file
configured as scan.source is polled until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var seen form.CopySet
			emit := func(code string) {
				if seen.Add(code) {
					fmt.Println(code)
				}
			}

			if watch {
				if cfg.Scan.Source == "" {
					return errors.New("scan.source is not configured")
				}
				return pollSource(cmd.Context(), scan.NewSource(cfg.Scan.Source), emit)
			}
			if len(args) == 0 {
				return errors.New("no images given (or use --watch)")
			}

			dec := scan.NewQRDecoder()
			failed := 0
			for _, path := range args {
				if info, err := os.Stat(path); err == nil && info.IsDir() {
					if err := pollSource(cmd.Context(), &scan.DirSource{Dir: path}, emit); err != nil {
						return err
					}
					continue
				}
				code, err := scan.DecodeFile(dec, path)
				if err != nil {
					warn("%s: %v", path, err)
					failed++
					continue
				}
				emit(code)
			}
			if failed == len(args) {
				return errors.New("no codes found")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Poll the configured capture snapshot")
	return cmd
}

// pollSource runs a scan session over src until it is exhausted or ctx ends.
func pollSource(ctx context.Context, src scan.FrameSource, emit func(string)) error {
	interval := cfg.Scan.Interval
	if _, batch := src.(*scan.DirSource); batch {
		interval = time.Millisecond
	}
	s, err := scan.Start(ctx, src, scan.Options{Interval: interval, Logger: logger})
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	for code := range s.Codes() {
		emit(code)
	}
	return s.Err()
}
