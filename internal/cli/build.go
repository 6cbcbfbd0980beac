package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	domprofile "github.com/kailas-cloud/reelsearch/internal/domain/profile"
	"github.com/kailas-cloud/reelsearch/internal/repository/profilestore"
	"github.com/kailas-cloud/reelsearch/internal/usecase/profile"
)

var (
	buildTargets    string
	buildNext       string
	buildBatchLimit int
	buildWorkers    int
	buildJSONOut    string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Merge downloaded batches into the profile store",
	Long: `Loads the canonical store and every batch file, merges partial records per
slug (later non-empty values win) and saves the result sorted by name.
With --targets, the slugs still missing are written to --next, at most
--batch-limit per request.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	f := buildCmd.Flags()
	f.StringVar(&buildTargets, "targets", "", "master list of slugs to collect")
	f.StringVar(&buildNext, "next", "next_request.json", "where to write the next request slice")
	f.IntVar(&buildBatchLimit, "batch-limit", profilestore.BatchLimit, "slugs per download request")
	f.IntVar(&buildWorkers, "workers", 0, "parallel batch file readers (0 = half the CPUs)")
	f.StringVar(&buildJSONOut, "json-out", "", "also write the merged store as JSON here (badger mode)")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	s, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	var existing, batches []domprofile.Profile
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ps, err := s.LoadProfiles(gctx)
		if err != nil {
			return fmt.Errorf("load store: %w", err)
		}
		existing = ps
		return nil
	})
	g.Go(func() error {
		ps, err := profilestore.NewBatchReader(batchGlob, buildWorkers, logger).LoadProfiles(gctx)
		if err != nil {
			return fmt.Errorf("load batches: %w", err)
		}
		batches = ps
		return nil
	})
	if err := g.Wait(); err != nil {
		return err //nolint:wrapcheck // wrapped in the goroutines
	}

	merged := profile.Merge(append(existing, batches...)...)
	if err := s.SaveProfiles(ctx, merged); err != nil {
		return fmt.Errorf("save store: %w", err)
	}
	if buildJSONOut != "" {
		if err := profilestore.NewJSONFile(buildJSONOut).SaveProfiles(ctx, merged); err != nil {
			return fmt.Errorf("save json copy: %w", err)
		}
	}
	logger.Info("Store rebuilt",
		zap.Int("stored", len(existing)),
		zap.Int("batch_partials", len(batches)),
		zap.Int("profiles", len(merged)),
	)
	cmd.Printf("Merged %d batch records into %d profiles.\n", len(batches), len(merged))

	if buildTargets == "" {
		return nil
	}
	targets, err := profilestore.LoadTargets(buildTargets)
	if err != nil {
		return fmt.Errorf("load targets: %w", err)
	}
	next, missing := profilestore.NextRequest(targets, merged, buildBatchLimit)
	if err := profilestore.WriteRequest(buildNext, next); err != nil {
		return fmt.Errorf("write next request: %w", err)
	}
	cmd.Printf("Targets: %d, missing: %d, next request: %d slugs -> %s\n",
		len(targets), missing, len(next), buildNext)
	return nil
}
