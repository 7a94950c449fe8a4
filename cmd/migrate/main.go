// migrate applies or rolls back the audit trail schema from the embedded SQL files.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"workforce-console/backend/internal/config"
	"workforce-console/backend/internal/db/migrate"
)

func main() {
	dir := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()
	direction, err := migrate.ParseDirection(*dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(2)
	}

	cfg, err := config.LoadDatabase()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := migrate.Run(cfg.DatabaseURL, direction); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return
		}
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}
