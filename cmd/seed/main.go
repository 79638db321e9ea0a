package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

//nolint:gochecknoglobals // Cobra boilerplate
var envName string

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load checklists and fixture data into the audit database",
	Long: `seed prepares a MongoDB database for the store audit API.

Examples:
  # Import a checklist definition
  seed checklist --file checklists/loja.yaml

  # Create 10 stores with their users and one NEW audit each
  seed fixtures --stores 10 --checklist 1 --drop`,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if envName == "" {
			return nil
		}
		return loadEnvFiles(envName)
	},
	SilenceUsage: true,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.PersistentFlags().StringVar(&envName, "env", "", "env file name under ../env (e.g. local, staging)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// collections mirrors the API's collection configuration.
type collections struct {
	audits             string
	scores             string
	sectionEvaluations string
	checklists         string
	stores             string
	users              string
}

func collectionsFromEnv() collections {
	return collections{
		audits:             envOrDefault("AUDIT_COLLECTION", "audits"),
		scores:             envOrDefault("AUDIT_SCORE_COLLECTION", "audit_scores"),
		sectionEvaluations: envOrDefault("SECTION_EVALUATION_COLLECTION", "section_evaluations"),
		checklists:         envOrDefault("CHECKLIST_COLLECTION", "checklists"),
		stores:             envOrDefault("STORE_COLLECTION", "stores"),
		users:              envOrDefault("USER_COLLECTION", "users"),
	}
}

// withDatabase connects, runs fn and disconnects.
func withDatabase(timeout time.Duration, fn func(ctx context.Context, db *mongo.Database) error) error {
	mongoURI := envOrDefault("MONGO_URI", "mongodb://localhost:27017")
	dbName := envOrDefault("MONGO_DB", "store-audit")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return errors.Wrap(err, "connect to MongoDB")
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	log.Printf("Mongo: %s / %s", mongoURI, dbName)
	return fn(ctx, client.Database(dbName))
}

func loadEnvFiles(envName string) error {
	base := filepath.Clean(filepath.Join("..", "env"))
	files := []string{
		filepath.Join(base, "shared.env"),
		filepath.Join(base, fmt.Sprintf("%s.env", envName)),
	}
	for _, file := range files {
		if err := loadEnvFile(file); err != nil {
			return err
		}
	}
	return nil
}

func loadEnvFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := parseEnvLine(scanner.Text())
		if !ok {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func parseEnvLine(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	line = strings.TrimPrefix(line, "export ")
	key, value, found := strings.Cut(line, "=")
	if !found || strings.TrimSpace(key) == "" {
		return "", "", false
	}
	return strings.TrimSpace(key), strings.Trim(strings.TrimSpace(value), `"'`), true
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
