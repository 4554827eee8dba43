package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/emeersman/design-for-iot/config"
	"github.com/emeersman/design-for-iot/internal/repositories"
	"github.com/emeersman/design-for-iot/internal/services/bulkimport"
	"github.com/emeersman/design-for-iot/pkg/logger"
)

func main() {
	l := logger.NewZapLogger("history-parser", os.Stdout)

	app := &cli.App{
		Name:  "history-parser",
		Usage: "extract daily high temperatures from an OpenWeather bulk history export",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "in",
				Usage:    "bulk history JSON array",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "write a JSON history file here instead of the configured store",
			},
			&cli.StringFlag{
				Name:  "location",
				Usage: "location the history belongs to (defaults to history.default_location)",
			},
		},
		Action: func(c *cli.Context) error {
			return run(c.Context, c.String("in"), c.String("out"), c.String("location"), l)
		},
	}

	if err := app.Run(os.Args); err != nil {
		l.Error(err)
		_ = l.Stop()
		os.Exit(1)
	}

	_ = l.Stop()
}

func run(ctx context.Context, in, out, location string, l *logger.Logger) error {
	history, stats, err := bulkimport.NewParser(l).ParseFile(in)
	if err != nil {
		return err
	}

	if out != "" {
		if err := repositories.WriteHistoryFile(out, history); err != nil {
			return err
		}
		l.Info("wrote history file", map[string]any{"path": out, "days": stats.Days})
		return nil
	}

	cnf, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	if location == "" {
		location = cnf.History.DefaultLocation
	}

	store, err := repositories.InitHistoryRepository(cnf, l)
	if err != nil {
		return err
	}
	defer store.Close()

	importer, ok := store.(repositories.HistoryImporter)
	if !ok {
		return fmt.Errorf("history store %s does not support bulk import", store.Name())
	}
	if err := importer.Import(ctx, location, history); err != nil {
		return err
	}

	l.Info("imported bulk history", map[string]any{
		"store":    store.Name(),
		"location": location,
		"days":     stats.Days,
	})

	return nil
}
