// Command catalogctl runs catalog maintenance tasks outside the server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"catalog-service/internal/config"
	"catalog-service/internal/jobs"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"catalog-service/internal/services"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stderr)
	return logger
}

func openDB() (*gorm.DB, error) {
	return config.InitDB(config.Load())
}

func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "catalogctl",
		Usage: "Catalog service maintenance",
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "Create or update the catalog tables",
				Action: func(ctx context.Context, c *cli.Command) error {
					db, err := openDB()
					if err != nil {
						return err
					}
					if err := config.Migrate(db); err != nil {
						return err
					}
					log.Println("Migration complete")
					return nil
				},
			},
			{
				Name:  "recover-jobs",
				Usage: "Return stale PROCESSING jobs to QUEUED so a running server picks them up",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "stale-after",
						Value: jobs.DefaultStaleAfter,
						Usage: "how long a job may stay PROCESSING before it is considered lost",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					db, err := openDB()
					if err != nil {
						return err
					}
					recovered := recoverJobs(ctx, out,
						repository.NewImportJobRepository(db),
						repository.NewExportJobRepository(db),
						c.Duration("stale-after"),
					)
					log.Printf("Recovered %d jobs", recovered)
					return nil
				},
			},
			{
				Name:      "preview-file",
				Usage:     "Validate an import file against a seller's catalog without importing it",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "tenant", Required: true, Usage: "tenant id"},
					&cli.StringFlag{Name: "seller", Required: true, Usage: "seller id"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					path := c.Args().First()
					if path == "" {
						return fmt.Errorf("an import file is required")
					}
					data, err := os.ReadFile(path)
					if err != nil {
						return err
					}

					db, err := openDB()
					if err != nil {
						return err
					}
					categories := services.NewCategoryService(repository.NewCategoryRepository(db, nil), nil, newLogger())
					validator := services.NewImportValidator(categories, repository.NewProductsRepository(db))

					return previewFile(ctx, out, validator, c.String("tenant"), c.String("seller"), filepath.Base(path), data)
				},
			},
		},
	}
}

// printQueue reports the jobs the sweeper would hand to a worker
type printQueue struct {
	out  io.Writer
	kind string
}

func (q printQueue) Enqueue(id uuid.UUID) error {
	_, err := fmt.Fprintf(q.out, "%s job %s is QUEUED\n", q.kind, id)
	return err
}

func recoverJobs(ctx context.Context, out io.Writer, importJobs repository.ImportJobRepositoryInterface, exportJobs repository.ExportJobRepositoryInterface, staleAfter time.Duration) int {
	sweeper := jobs.NewRecoverySweeper(importJobs, exportJobs,
		printQueue{out: out, kind: "import"},
		printQueue{out: out, kind: "export"},
		time.Hour, staleAfter, newLogger())
	return sweeper.RunOnce(ctx)
}

func previewFile(ctx context.Context, out io.Writer, validator *services.ImportValidator, tenantID, sellerID, fileName string, data []byte) error {
	preview, err := validator.Preview(ctx, tenantID, sellerID, fileName, data)
	if err != nil {
		return err
	}

	// the row payloads are noise on a terminal
	report := struct {
		*models.ImportPreview
		ValidRows []models.ImportRow `json:"validRows,omitempty"`
	}{ImportPreview: preview}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	if preview.HasJobErrors() {
		return fmt.Errorf("file rejected: %d file-level errors", len(preview.JobErrors))
	}
	return nil
}
