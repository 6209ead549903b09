// issuectl is the operator tool for the issue reporter.  It talks to the
// database directly and covers what the HTTP API deliberately lacks:
//
//	issuectl migrate
//	issuectl create-admin --username carol --email carol@example.com --password ...
//
// Configuration comes from the same environment (and .env file) as the
// server.  The password may also be read from ISSUECTL_PASSWORD so it stays
// out of shell history.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/iliyamo/civic-issue-reporter/internal/config"
	"github.com/iliyamo/civic-issue-reporter/internal/database"
	"github.com/iliyamo/civic-issue-reporter/internal/logger"
	"github.com/iliyamo/civic-issue-reporter/internal/repository"
	"github.com/iliyamo/civic-issue-reporter/internal/service"
	"github.com/iliyamo/civic-issue-reporter/internal/utils"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		usage(out)
		return nil
	}
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "migrate":
		return migrate(rest, out)
	case "create-admin":
		return createAdmin(rest, out)
	}
	usage(out)
	return fmt.Errorf("unknown command %q", cmd)
}

func usage(out io.Writer) {
	fmt.Fprint(out, `usage: issuectl <command> [flags]

commands:
  migrate        create the users and issues tables if missing
  create-admin   create an admin account (--username, --email, --password)
`)
}

// withDB loads configuration, opens the database and runs fn against it.
func withDB(fn func(ctx context.Context, cfg config.Config, db *sql.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	db, err := database.Open(ctx, database.FromConfig(cfg))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	return fn(ctx, cfg, db)
}

func migrate(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	return withDB(func(ctx context.Context, cfg config.Config, db *sql.DB) error {
		if err := database.Migrate(ctx, db, cfg.DBDriver); err != nil {
			return err
		}
		fmt.Fprintf(out, "schema up to date (%s)\n", cfg.DBDriver)
		return nil
	})
}

func createAdmin(args []string, out io.Writer) error {
	var in service.RegisterInput
	fs := pflag.NewFlagSet("create-admin", pflag.ContinueOnError)
	fs.StringVarP(&in.Username, "username", "u", "", "login name of the new admin")
	fs.StringVarP(&in.Email, "email", "e", "", "contact address")
	fs.StringVarP(&in.Password, "password", "p", "", "password (default: $ISSUECTL_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if in.Password == "" {
		in.Password = os.Getenv("ISSUECTL_PASSWORD")
	}

	return withDB(func(ctx context.Context, cfg config.Config, db *sql.DB) error {
		if err := database.Migrate(ctx, db, cfg.DBDriver); err != nil {
			return err
		}
		auth := service.NewAuthService(repository.NewUserRepo(db), utils.NewTokenService(cfg.JWTSecret), cfg.BcryptCost)
		u, err := auth.CreateAdmin(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "created admin %s (%s)\n", u.Username, u.ID)
		return nil
	})
}
