package cli

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	domprofile "github.com/kailas-cloud/reelsearch/internal/domain/profile"
	"github.com/kailas-cloud/reelsearch/internal/repository/profilestore"
	"github.com/kailas-cloud/reelsearch/internal/usecase/profile"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Print an entity's canonical profile",
	Long: `Resolves a display or native name against the merged store (plus any
--batches) exactly as the search service does and prints the profile with its tier.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "output the profile as JSON")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	idx, err := loadIndex(cmd)
	if err != nil {
		return err
	}

	p, ok := idx.Resolve(args[0])
	if !ok {
		return fmt.Errorf("no profile named %q", args[0])
	}

	if showJSON {
		data, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal profile: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	printProfile(cmd, &p)
	return nil
}

func loadIndex(cmd *cobra.Command) (*profile.Index, error) {
	s, closeStore, err := openStore()
	if err != nil {
		return nil, err
	}
	defer closeStore()

	stored, err := s.LoadProfiles(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("load store: %w", err)
	}
	batches, err := profilestore.NewBatchReader(batchGlob, 0, logger).LoadProfiles(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("load batches: %w", err)
	}
	return profile.NewIndex(profile.Merge(append(stored, batches...)...)), nil
}

func printProfile(cmd *cobra.Command, p *domprofile.Profile) {
	cmd.Printf("%s", p.Name)
	if p.NativeName != "" {
		cmd.Printf(" (%s)", p.NativeName)
	}
	cmd.Printf("\n  slug: %s\n  tier: %v\n", p.Slug, p.Tier())
	if p.Avatar != "" {
		cmd.Printf("  avatar: %s\n", p.Avatar)
	}
	for _, k := range slices.Sorted(maps.Keys(p.Attributes)) {
		cmd.Printf("  %s: %s\n", k, p.Attributes[k])
	}
	if p.Biography == nil {
		return
	}
	cmd.Println("  biography:")
	for _, k := range slices.Sorted(maps.Keys(p.Biography.Personal)) {
		cmd.Printf("    %s: %s\n", k, p.Biography.Personal[k])
	}
	for _, k := range slices.Sorted(maps.Keys(p.Biography.Body)) {
		cmd.Printf("    %s: %s\n", k, p.Biography.Body[k])
	}
}
