package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/souq-backend/pkg/config"
	"github.com/angelmondragon/souq-backend/pkg/db"
	"github.com/angelmondragon/souq-backend/pkg/logger"
	"github.com/angelmondragon/souq-backend/pkg/migrate"
)

const usage = `usage: migrate [flags] <command>

commands:
  up                 apply all pending migrations
  down               roll back the latest migration
  status             list migrations and when they were applied
  to <version>       migrate up or down to YYYYMMDDHHMMSS
  create <name>      write a new migration into -dir
  validate           check migration files in -dir

flags:
`

func main() {
	dir := flag.String("dir", migrate.DefaultDir, "migrations directory for create and validate")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	command, args := flag.Arg(0), flag.Args()[1:]

	// file-only commands need neither config nor a database
	switch command {
	case "create":
		if len(args) != 1 {
			exit("create needs a migration name")
		}
		path, err := migrate.CreateSQLMigration(*dir, args[0])
		if err != nil {
			exit(err.Error())
		}
		fmt.Println("created", path)
		return
	case "validate":
		if err := migrate.ValidateDir(*dir); err != nil {
			exit(err.Error())
		}
		fmt.Println("migrations ok")
		return
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		exit("load config: " + err.Error())
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{"env": cfg.App.Env, "command": command})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "connect database", err)
		os.Exit(1)
	}
	defer dbClient.Close()
	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		logg.Error(ctx, "sql handle", err)
		os.Exit(1)
	}
	runner, err := migrate.NewRunner(sqlDB, migrate.Migrations(), logg)
	if err != nil {
		logg.Error(ctx, "build migration runner", err)
		os.Exit(1)
	}

	if err := run(ctx, runner, command, args); err != nil {
		logg.Error(ctx, "migration command failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, runner *migrate.Runner, command string, args []string) error {
	switch command {
	case "up":
		return runner.Up(ctx)
	case "down":
		return runner.Down(ctx)
	case "to":
		if len(args) != 1 {
			return fmt.Errorf("to needs a version")
		}
		version, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("version %q: %w", args[0], err)
		}
		return runner.To(ctx, version)
	case "status":
		statuses, err := runner.Status(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT")
		for _, s := range statuses {
			applied := "-"
			if !s.AppliedAt.IsZero() {
				applied = s.AppliedAt.UTC().Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\n", s.Source.Version, s.State, applied)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func exit(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
