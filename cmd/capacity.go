package cmd

import (
	"cleanny-dispatch/outbound/capacity"
	"context"
	"log"
	"log/slog"
	"os"
)

// runCapacityImportCmd loads a monthly schedule file into the capacity hash
// the selector reads.
func runCapacityImportCmd(ctx context.Context, file string) {
	cfg := newCfg("env")

	cacheClient := newRedis(cfg)
	defer cacheClient.Close()

	f, err := os.Open(file)
	if err != nil {
		log.Fatalln("unable to open schedule", err)
	}
	defer f.Close()

	sheet, err := capacity.LoadSheet(f)
	if err != nil {
		log.Fatalln("unable to read schedule", err)
	}

	source := capacity.RedisSource{Cache: cacheClient}
	if err := source.Import(ctx, sheet); err != nil {
		log.Fatalln("unable to import schedule", err)
	}

	slog.InfoContext(ctx, "capacity schedule imported", slog.String("month", sheet.Month), slog.Int("rows", len(sheet.Staff)))
}
