package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	domprofile "github.com/kailas-cloud/reelsearch/internal/domain/profile"
	"github.com/kailas-cloud/reelsearch/internal/repository/profilestore"
	"github.com/kailas-cloud/reelsearch/internal/usecase/profile"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill [scrape.jsonl]",
	Short: "Fill missing profile attributes from a scrape",
	Long: `Backs up the store, then fills empty or placeholder attributes (debut,
birthplace, sign, blood type, measurements and similar) from a JSON-lines scrape
keyed by slug. Valid existing values are never replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: runBackfill,
}

func init() {
	rootCmd.AddCommand(backfillCmd)
}

func runBackfill(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	if jf, ok := s.(*profilestore.JSONFile); ok {
		backup, err := jf.Backup()
		if err != nil {
			return fmt.Errorf("backup: %w", err)
		}
		if backup != "" {
			cmd.Printf("Backup written to %s\n", backup)
		}
	}

	var existing, scrape []domprofile.Profile
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
		ps, err := profilestore.LoadJSONLines(args[0])
		if err != nil {
			return fmt.Errorf("load scrape: %w", err)
		}
		scrape = ps
		return nil
	})
	if err := g.Wait(); err != nil {
		return err //nolint:wrapcheck // wrapped in the goroutines
	}
	if len(existing) == 0 {
		return errors.New("profile store is empty, nothing to backfill")
	}

	stats := profile.BackfillAll(existing, scrape)
	if stats.ProfilesUpdated > 0 {
		if err := s.SaveProfiles(ctx, existing); err != nil {
			return fmt.Errorf("save store: %w", err)
		}
	}

	logger.Info("Backfill finished",
		zap.Int("scrape_entries", stats.ScrapeEntries),
		zap.Int("skipped", stats.Skipped),
		zap.Int("profiles_updated", stats.ProfilesUpdated),
		zap.Int("fields_filled", stats.FieldsFilled),
	)
	cmd.Printf("Profiles updated: %d\nFields filled: %d\n", stats.ProfilesUpdated, stats.FieldsFilled)
	return nil
}
