package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"github.com/sngm3741/store-audit-services/api/internal/audit/domain"
	mongodoc "github.com/sngm3741/store-audit-services/api/internal/infrastructure/mongo"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
)

type fixtureOptions struct {
	storeCount      int
	checklistID     int
	aderenteVisits  int
	dropCollections bool
	randomSeed      int64
}

//nolint:gochecknoglobals // Cobra boilerplate
var fixtureOpts fixtureOptions

//nolint:gochecknoglobals // Cobra boilerplate
var fixturesCmd = &cobra.Command{
	Use:   "fixtures",
	Short: "Create users, stores and NEW audits",
	Long: `Creates one team leader plus, per store, a DOT user, an Aderente user and
a NEW audit against the given checklist. The checklist must already be imported.`,
	RunE: runFixtures,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(fixturesCmd)
	fixturesCmd.Flags().IntVar(&fixtureOpts.storeCount, "stores", 10, "number of stores to create")
	fixturesCmd.Flags().IntVar(&fixtureOpts.checklistID, "checklist", 1, "checklist id the audits run against")
	fixturesCmd.Flags().IntVar(&fixtureOpts.aderenteVisits, "aderente-visits", 2, "how many of the audits are Aderente visits")
	fixturesCmd.Flags().BoolVar(&fixtureOpts.dropCollections, "drop", false, "drop existing audit, store and user data first")
	fixturesCmd.Flags().Int64Var(&fixtureOpts.randomSeed, "seed", time.Now().UnixNano(), "random seed (for reproducible data)")
}

// fixtureSet is the generated data before any id is assigned.
type fixtureSet struct {
	users  []domain.User
	stores []storeFixture
}

type storeFixture struct {
	store domain.Store
	audit domain.Audit
}

var storeNames = []string{"Lisboa", "Porto", "Braga", "Coimbra", "Faro", "Aveiro", "Setúbal", "Évora", "Viseu", "Leiria"}

var personNames = []string{"Ana", "Rui", "Marta", "João", "Inês", "Pedro", "Sofia", "Tiago", "Carla", "Nuno"}

// generateFixtures is deterministic for a given rng.
func generateFixtures(rng *rand.Rand, opts fixtureOptions) fixtureSet {
	set := fixtureSet{
		users: []domain.User{{ID: "tl-1", Name: "Team Leader", Role: domain.RoleTeamLeader}},
	}
	aderenteVisits := rng.Perm(opts.storeCount)
	if opts.aderenteVisits < len(aderenteVisits) {
		aderenteVisits = aderenteVisits[:max(opts.aderenteVisits, 0)]
	}
	visitByAderente := make(map[int]bool, len(aderenteVisits))
	for _, i := range aderenteVisits {
		visitByAderente[i] = true
	}

	for i := 0; i < opts.storeCount; i++ {
		n := i + 1
		dot := domain.User{ID: fmt.Sprintf("dot-%d", n), Name: personNames[rng.Intn(len(personNames))] + " (DOT)", Role: domain.RoleDOT}
		aderente := domain.User{ID: fmt.Sprintf("ad-%d", n), Name: personNames[rng.Intn(len(personNames))] + " (Aderente)", Role: domain.RoleAderente}
		set.users = append(set.users, dot, aderente)

		source := domain.VisitDOT
		if visitByAderente[i] {
			source = domain.VisitAderente
		}
		set.stores = append(set.stores, storeFixture{
			store: domain.Store{
				Name:         fmt.Sprintf("Loja %s %d", storeNames[i%len(storeNames)], n),
				Code:         fmt.Sprintf("L%04d", n),
				AderenteID:   aderente.ID,
				AderenteName: aderente.Name,
			},
			audit: domain.Audit{
				ChecklistID: opts.checklistID,
				DotUserID:   dot.ID,
				CreatedBy:   "tl-1",
				Status:      domain.StatusNew,
				VisitSource: source,
			},
		})
	}
	return set
}

func runFixtures(_ *cobra.Command, _ []string) error {
	if fixtureOpts.storeCount <= 0 {
		return errors.New("--stores must be at least 1")
	}
	cols := collectionsFromEnv()
	return withDatabase(60*time.Second, func(ctx context.Context, db *mongo.Database) error {
		if _, err := mongodoc.NewChecklistRepository(db, cols.checklists).Checklist(ctx, fixtureOpts.checklistID); err != nil {
			return errors.Wrapf(err, "checklist %d (import it with `seed checklist` first)", fixtureOpts.checklistID)
		}
		if fixtureOpts.dropCollections {
			if err := dropCollections(ctx, db, cols); err != nil {
				return err
			}
			log.Printf("existing collections dropped")
		}
		if err := mongodoc.EnsureIndexes(ctx, db, mongodoc.Collections{
			Audits:             cols.audits,
			Scores:             cols.scores,
			SectionEvaluations: cols.sectionEvaluations,
			Checklists:         cols.checklists,
			Stores:             cols.stores,
			Users:              cols.users,
		}); err != nil {
			return err
		}

		set := generateFixtures(rand.New(rand.NewSource(fixtureOpts.randomSeed)), fixtureOpts)
		directory := mongodoc.NewDirectoryRepository(db, cols.stores, cols.users)
		audits := mongodoc.NewAuditRepository(db, cols.audits)

		for _, user := range set.users {
			if err := directory.UpsertUser(ctx, user); err != nil {
				return err
			}
		}
		for _, fixture := range set.stores {
			store := fixture.store
			if err := directory.CreateStore(ctx, &store); err != nil {
				return err
			}
			audit := fixture.audit
			audit.StoreID = store.ID
			if err := audits.Create(ctx, &audit); err != nil {
				return err
			}
			log.Printf("store %s (%s): audit %s for %s [%s]", store.ID, store.Name, audit.ID, audit.DotUserID, audit.VisitSource)
		}

		log.Printf("seed complete: users=%d stores=%d audits=%d (seed=%d)", len(set.users), len(set.stores), len(set.stores), fixtureOpts.randomSeed)
		return nil
	})
}

func dropCollections(ctx context.Context, db *mongo.Database, cols collections) error {
	for _, name := range []string{cols.audits, cols.scores, cols.sectionEvaluations, cols.stores, cols.users} {
		if err := db.Collection(name).Drop(ctx); err != nil {
			return errors.Wrapf(err, "drop %s", name)
		}
	}
	return nil
}
