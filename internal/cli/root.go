// Package cli implements profilectl, the offline profile store tool.
package cli

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	domprofile "github.com/kailas-cloud/reelsearch/internal/domain/profile"
	logpkg "github.com/kailas-cloud/reelsearch/internal/logger"
	"github.com/kailas-cloud/reelsearch/internal/repository/profilestore"
	"github.com/kailas-cloud/reelsearch/internal/version"
)

var (
	dbPath     string
	badgerPath string
	batchGlob  string
	verbose    bool

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "profilectl",
	Short: "Maintain the canonical entity profile store",
	Long: `profilectl merges downloaded profile batches into the canonical store,
backfills missing attributes from scrapes and exports the entity dictionary
the search service loads.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger = logpkg.NewCLI(verbose)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("profilectl version %s (%s)\n", version.Version, version.Commit)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dbPath, "db", "profiles.json", "canonical profile database (JSON)")
	pf.StringVar(&badgerPath, "badger", "", "badger profile store directory; overrides --db")
	pf.StringVar(&batchGlob, "batches", "", "glob of downloaded batch files to merge over the store")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx) //nolint:wrapcheck // cobra errors are user-facing as-is
}

// store is the canonical profile store, JSON file or badger.
type store interface {
	LoadProfiles(ctx context.Context) ([]domprofile.Profile, error)
	SaveProfiles(ctx context.Context, ps []domprofile.Profile) error
}

// openStore opens the configured store. close releases it.
func openStore() (s store, closeFn func(), err error) {
	if badgerPath != "" {
		db, err := profilestore.OpenBadger(badgerPath, logger)
		if err != nil {
			return nil, nil, err //nolint:wrapcheck // already carries the path
		}
		return db, func() { _ = db.Close() }, nil
	}
	return profilestore.NewJSONFile(dbPath), func() {}, nil
}
