package main

import (
	"context"
	"log"
	"time"

	"github.com/pkg/errors"
	"github.com/sngm3741/store-audit-services/api/internal/infrastructure/checklistfile"
	mongodoc "github.com/sngm3741/store-audit-services/api/internal/infrastructure/mongo"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
)

//nolint:gochecknoglobals // Cobra boilerplate
var checklistFiles []string

//nolint:gochecknoglobals // Cobra boilerplate
var checklistCmd = &cobra.Command{
	Use:   "checklist",
	Short: "Import checklist YAML definitions",
	Long: `Parses and validates each file, then replaces the checklist with the same
id in the checklists collection.`,
	RunE: runChecklist,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(checklistCmd)
	checklistCmd.Flags().StringSliceVarP(&checklistFiles, "file", "f", nil, "checklist YAML file (repeatable)")
	_ = checklistCmd.MarkFlagRequired("file")
}

func runChecklist(_ *cobra.Command, _ []string) error {
	cols := collectionsFromEnv()
	return withDatabase(30*time.Second, func(ctx context.Context, db *mongo.Database) error {
		repo := mongodoc.NewChecklistRepository(db, cols.checklists)
		for _, path := range checklistFiles {
			if err := importChecklist(ctx, repo, path); err != nil {
				return err
			}
		}
		return nil
	})
}

func importChecklist(ctx context.Context, repo *mongodoc.ChecklistRepository, path string) error {
	checklist, err := checklistfile.Load(path)
	if err != nil {
		return err
	}
	if err := repo.Upsert(ctx, checklist); err != nil {
		return errors.Wrapf(err, "import %s", path)
	}
	log.Printf("checklist %d (%s) imported from %s: %d criteria", checklist.ID, checklist.Name, path, len(checklist.CriterionIDs()))
	return nil
}
