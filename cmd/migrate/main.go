// Command migrate applies or rolls back profile database migrations.
//
// Usage:
//
//	migrate -dsn postgres://... up
//	migrate -dsn postgres://... down
//	migrate -dsn postgres://... status
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"crewbase.org/internal/migrate"
)

func main() {
	var (
		dsn           = flag.String("dsn", os.Getenv("CREWBASE_PG_DSN"), "Postgres DSN (defaults to CREWBASE_PG_DSN)")
		migrationsDir = flag.String("migrations", "migrations", "directory with *.up.sql / *.down.sql files")
		timeout       = flag.Duration("timeout", 2*time.Minute, "overall command timeout")
	)
	flag.Parse()

	if *dsn == "" {
		fatal("missing -dsn (or CREWBASE_PG_DSN)")
	}
	cmd := flag.Arg(0)
	if cmd == "" {
		fatal("missing command: up | down | status")
	}

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		fatal("open database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		fatal("ping database: %v", err)
	}

	mgr := migrate.NewManager(db, *migrationsDir)

	switch cmd {
	case "up":
		if err := mgr.Up(ctx); err != nil {
			fatal("up: %v", err)
		}
		fmt.Println("migrations applied")
	case "down":
		if err := mgr.Down(ctx); err != nil {
			fatal("down: %v", err)
		}
		fmt.Println("last migration rolled back")
	case "status":
		applied, err := mgr.Status(ctx)
		if err != nil {
			fatal("status: %v", err)
		}
		if len(applied) == 0 {
			fmt.Println("no migrations applied")
			return
		}
		for _, name := range applied {
			fmt.Println(name)
		}
	default:
		fatal("unknown command %q: want up | down | status", cmd)
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
