// -- cmd/serialize.go --
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/pagelens/internal/dom"
	"github.com/xkilldash9x/pagelens/internal/dom/clickable"
	"github.com/xkilldash9x/pagelens/internal/dom/paintorder"
	"github.com/xkilldash9x/pagelens/internal/dom/serializer"
	"github.com/xkilldash9x/pagelens/internal/observability"
)

// newSerializeCmd creates and configures the `serialize` command.
func newSerializeCmd() *cobra.Command {
	serializeCmd := &cobra.Command{
		Use:   "serialize [snapshots...]",
		Short: "Serializes captured page snapshots into agent-readable text",
		Long: `Serialize reads one or more snapshot files (JSON trees produced by
'pagelens capture', or raw HTML with --html) and writes the indexed textual
form next to each input. The previous run's address table can be supplied
with --previous so elements that appeared since then are marked new.`,
		Args: cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSerialize(cmd, args)
		},
	}

	serializeCmd.Flags().Bool("html", false, "treat inputs as raw HTML instead of snapshot JSON")
	serializeCmd.Flags().Bool("stdout", false, "write serialized text to stdout instead of files")
	serializeCmd.Flags().String("previous", "", "address-table file from a previous run, for novelty marking")
	serializeCmd.Flags().String("state-out", "", "write this run's address table to the given file")
	serializeCmd.Flags().Int("concurrency", 4, "number of snapshots serialized in parallel")
	return serializeCmd
}

func runSerialize(cmd *cobra.Command, args []string) error {
	logger := observability.GetLogger()

	fromHTML := viper.GetBool("html")
	toStdout := viper.GetBool("stdout")
	previousPath := viper.GetString("previous")
	statePath := viper.GetString("state-out")
	concurrency := viper.GetInt("concurrency")
	if concurrency < 1 {
		concurrency = 1
	}

	var previous *serializer.SerializedState
	if previousPath != "" {
		state, err := loadAddressTable(previousPath)
		if err != nil {
			return fmt.Errorf("loading previous address table: %w", err)
		}
		previous = state
	}
	if len(args) > 1 && (previousPath != "" || statePath != "") {
		return fmt.Errorf("--previous/--state-out apply to a single snapshot, got %d", len(args))
	}

	// Independent snapshots get independent serializer instances; the
	// run-scoped caches are not safe to share across overlapping runs.
	group, ctx := errgroup.WithContext(cmd.Context())
	group.SetLimit(concurrency)

	for _, path := range args {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			root, sessionID, err := loadInputTree(path, fromHTML)
			if err != nil {
				return err
			}

			serCfg := appConfig.Serializer
			if serCfg.SessionID == "" {
				serCfg.SessionID = sessionID
			}
			ser := serializer.New(logger, serCfg, clickable.New(), paintorder.New())
			state, timing := ser.Serialize(root, previous)
			text := serializer.Render(state.Root, appConfig.Render.IncludeAttributes)

			logger.Debug("Serialized snapshot",
				zap.String("input", path),
				zap.Int("interactiveElements", len(state.SelectorMap)),
				zap.Duration("elapsed", timing["serialize_total"]),
			)

			if statePath != "" {
				if err := saveAddressTable(statePath, state.SelectorMap); err != nil {
					return err
				}
			}
			if toStdout {
				fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			}
			outPath := outputPath(path)
			if err := os.WriteFile(outPath, []byte(text+"\n"), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", outPath, err)
			}
			logger.Info("Wrote serialized page", zap.String("output", outPath))
			return nil
		})
	}
	return group.Wait()
}

// loadInputTree returns the raw tree plus the session id recorded at
// capture time, if any.
func loadInputTree(path string, fromHTML bool) (*dom.Node, string, error) {
	if fromHTML {
		f, err := os.Open(path)
		if err != nil {
			return nil, "", fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		root, err := dom.ParseHTML(f)
		return root, "", err
	}
	snap, err := dom.LoadSnapshot(path)
	if err != nil {
		return nil, "", err
	}
	return snap.Root, snap.SessionID, nil
}

func outputPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + ".txt"
}

// Address tables cross CLI invocations as a sorted list of backend
// identifiers; novelty detection only needs id membership.
type addressTableFile struct {
	BackendIDs []int64 `json:"backendIds"`
}

func loadAddressTable(path string) (*serializer.SerializedState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var table addressTableFile
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &table); err != nil {
		return nil, err
	}
	selectorMap := make(serializer.SelectorMap, len(table.BackendIDs))
	for _, id := range table.BackendIDs {
		selectorMap[id] = nil
	}
	return &serializer.SerializedState{SelectorMap: selectorMap}, nil
}

func saveAddressTable(path string, selectorMap serializer.SelectorMap) error {
	ids := make([]int64, 0, len(selectorMap))
	for id := range selectorMap {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(addressTableFile{BackendIDs: ids}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
