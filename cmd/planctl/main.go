// cmd/planctl/main.go
package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/demand-planner/internal/cache"
	"github.com/andresuchdata/demand-planner/internal/config"
	"github.com/andresuchdata/demand-planner/internal/geo"
	"github.com/andresuchdata/demand-planner/internal/storage"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "planctl",
		Usage: "Operational tooling for the demand planner",
		Commands: []*cli.Command{
			{
				Name:  "routes",
				Usage: "Inspect the route and geography config",
				Subcommands: []*cli.Command{
					{
						Name:  "validate",
						Usage: "Load and validate a routes config file",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:    "path",
								Usage:   "Path to the routes config file",
								Value:   "./configs/routes.json",
								EnvVars: []string{"ROUTES_CONFIG_PATH"},
							},
						},
						Action: validateRoutes,
					},
				},
			},
			{
				Name:  "cache",
				Usage: "Manage the demand and stock caches",
				Subcommands: []*cli.Command{
					{
						Name:   "flush",
						Usage:  "Drop all cached demand ranges and stock snapshots",
						Action: flushCaches,
					},
				},
			},
			{
				Name:  "forecast",
				Usage: "Work with materialized forecasts",
				Subcommands: []*cli.Command{
					{
						Name:  "export",
						Usage: "Export materialized forecasts for a scope as CSV",
						Flags: []cli.Flag{
							newDBURLFlag(),
							&cli.StringFlag{
								Name:     "channel",
								Usage:    "Sales channel to export",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "country",
								Usage: "Country to export (empty for channel-wide scopes)",
							},
							&cli.StringFlag{
								Name:  "out",
								Usage: "Output file (defaults to stdout)",
							},
						},
						Action: exportForecasts,
					},
					{
						Name:   "snapshots",
						Usage:  "List archived forecast snapshots",
						Flags:  []cli.Flag{&cli.StringFlag{Name: "prefix", Usage: "Key prefix to list", Value: "forecasts/"}},
						Action: listSnapshots,
					},
					{
						Name:  "fetch",
						Usage: "Download an archived forecast snapshot",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "key", Usage: "Object key to download", Required: true},
							&cli.StringFlag{Name: "out", Usage: "Output file (defaults to stdout)"},
						},
						Action: fetchSnapshot,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func validateRoutes(c *cli.Context) error {
	cfg, err := geo.Load(c.String("path"))
	if err != nil {
		return err
	}

	fmt.Printf("routes config OK (version %d)\n", cfg.Version)
	fmt.Printf("  countries:  %d\n", len(cfg.Countries))
	fmt.Printf("  sub-regions: %d\n", len(cfg.SubRegions))
	fmt.Printf("  locations:  %d\n", len(cfg.Routes))
	fmt.Printf("  scopes:     %d\n", len(cfg.Scopes()))
	return nil
}

func flushCaches(c *cli.Context) error {
	cfg := config.Load()
	if !cfg.Cache.Enabled {
		return fmt.Errorf("cache is not enabled, nothing to flush")
	}

	demandCache, err := cache.NewDemandCache(cfg.Cache)
	if err != nil {
		return err
	}
	stockCache, err := cache.NewStockCache(cfg.Cache)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := demandCache.InvalidateAll(ctx); err != nil {
		return fmt.Errorf("failed to flush demand cache: %w", err)
	}
	if err := stockCache.InvalidateAll(ctx); err != nil {
		return fmt.Errorf("failed to flush stock cache: %w", err)
	}

	fmt.Println("caches flushed")
	return nil
}

func newArchive() (storage.ObjectStorage, error) {
	cfg := config.Load()
	if !cfg.Storage.Enabled {
		return nil, fmt.Errorf("forecast archive is not enabled")
	}
	return storage.NewMinioClient(storage.MinioConfig{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		UseSSL:    cfg.Storage.UseSSL,
	})
}

func listSnapshots(c *cli.Context) error {
	archive, err := newArchive()
	if err != nil {
		return err
	}

	objects, err := archive.ListObjects(c.Context, c.String("prefix"))
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}

	for _, obj := range objects {
		fmt.Printf("%12d  %s\n", obj.Size, obj.Key)
	}
	log.Printf("%d snapshots", len(objects))
	return nil
}

func fetchSnapshot(c *cli.Context) error {
	archive, err := newArchive()
	if err != nil {
		return err
	}

	data, err := archive.DownloadObject(c.Context, c.String("key"))
	if err != nil {
		return fmt.Errorf("failed to download snapshot: %w", err)
	}

	if path := c.String("out"); path != "" {
		return os.WriteFile(path, data, 0o644)
	}
	_, err = os.Stdout.Write(data)
	return err
}

func exportForecasts(c *cli.Context) error {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(c.Context, `
		SELECT sku, channel, country, forecast_month, forecast_units
		FROM materialized_forecasts
		WHERE channel = $1 AND country = $2
		ORDER BY forecast_month ASC, sku ASC
	`, c.String("channel"), c.String("country"))
	if err != nil {
		return fmt.Errorf("failed to query materialized forecasts: %w", err)
	}
	defer rows.Close()

	out := os.Stdout
	if path := c.String("out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	w := csv.NewWriter(out)
	if err := w.Write([]string{"sku", "channel", "country", "forecast_month", "forecast_units"}); err != nil {
		return err
	}

	count := 0
	for rows.Next() {
		var (
			sku, channel, country string
			month                 sql.NullTime
			units                 int
		)
		if err := rows.Scan(&sku, &channel, &country, &month, &units); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		record := []string{sku, channel, country, "", fmt.Sprintf("%d", units)}
		if month.Valid {
			record[3] = month.Time.Format("2006-01")
		}
		if err := w.Write(record); err != nil {
			return err
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	log.Printf("exported %d forecast rows", count)
	return nil
}
