// -- cmd/capture.go --
package cmd

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/pagelens/internal/capture"
	"github.com/xkilldash9x/pagelens/internal/dom"
	"github.com/xkilldash9x/pagelens/internal/observability"
)

// newCaptureCmd creates and configures the `capture` command.
func newCaptureCmd() *cobra.Command {
	captureCmd := &cobra.Command{
		Use:   "capture [urls...]",
		Short: "Captures page snapshots from a live browser",
		Long: `Capture navigates a headless browser to each URL and stores the raw
page tree (DOM structure, layout geometry, accessibility data) as a snapshot
JSON file that 'pagelens serialize' consumes.`,
		Args: cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapture(cmd, args)
		},
	}

	captureCmd.Flags().StringP("out-dir", "o", ".", "directory snapshot files are written to")
	return captureCmd
}

func runCapture(cmd *cobra.Command, args []string) error {
	logger := observability.GetLogger()
	outDir := viper.GetString("out-dir")

	// One session id per capture run; pages can opt subtrees out of
	// serialization through the session-scoped exclusion attribute.
	sessionID := uuid.NewString()
	logger.Info("Starting capture session", zap.String("sessionId", sessionID), zap.Int("urls", len(args)))

	capturer := capture.New(logger, appConfig.Capture)

	// Captures run sequentially through one browser; the limiter keeps
	// multi-URL runs polite toward the target hosts.
	limiter := rate.NewLimiter(rate.Limit(appConfig.Capture.RateLimit), 1)

	for _, target := range args {
		if err := limiter.Wait(cmd.Context()); err != nil {
			return err
		}
		snap, err := capturer.Capture(cmd.Context(), target, sessionID)
		if err != nil {
			return err
		}
		outPath := filepath.Join(outDir, snapshotFilename(target))
		if err := dom.SaveSnapshot(outPath, snap); err != nil {
			return err
		}
		logger.Info("Wrote snapshot", zap.String("url", target), zap.String("output", outPath))
	}
	return nil
}

// snapshotFilename derives a filesystem-safe name from the target URL.
func snapshotFilename(target string) string {
	name := target
	if u, err := url.Parse(target); err == nil && u.Host != "" {
		name = u.Host + u.Path
	}
	replacer := strings.NewReplacer("/", "_", ":", "_", "?", "_", "&", "_", "=", "_", "#", "_")
	name = strings.Trim(replacer.Replace(name), "_")
	if name == "" {
		name = "snapshot"
	}
	return fmt.Sprintf("%s.json", name)
}
