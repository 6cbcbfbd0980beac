package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/reelsearch/internal/domain/entity"
	"github.com/kailas-cloud/reelsearch/internal/repository/entitydict"
)

var dictOut string

var dictCmd = &cobra.Command{
	Use:   "dict",
	Short: "Export the entity dictionary from canonical profiles",
	Args:  cobra.NoArgs,
	RunE:  runDict,
}

func init() {
	dictCmd.Flags().StringVarP(&dictOut, "out", "o", "entities.json", "dictionary output path")
	rootCmd.AddCommand(dictCmd)
}

func runDict(cmd *cobra.Command, _ []string) error {
	idx, err := loadIndex(cmd)
	if err != nil {
		return err
	}
	d := entity.New(idx.Names())
	if err := entitydict.Save(dictOut, d); err != nil {
		return fmt.Errorf("save dictionary: %w", err)
	}
	cmd.Printf("Wrote %d entities to %s\n", d.Len(), dictOut)
	return nil
}
