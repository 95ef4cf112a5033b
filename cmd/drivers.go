package cmd

// Database drivers linked into the rdk binary for the sql ingestor.
import (
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)
