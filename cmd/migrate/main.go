package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/ManuelReschke/ProposalCraft/internal/pkg/database"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/env"
)

func main() {
	env.SetupEnvFile()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	log.Printf("[Migrate] connecting to %s@%s:%s/%s",
		env.GetEnv("DB_USER", "proposalcraft"),
		env.GetEnv("DB_HOST", "127.0.0.1"),
		env.GetEnv("DB_PORT", "3306"),
		env.GetEnv("DB_NAME", "proposalcraft"),
	)

	m, err := migrate.New(
		"file://"+env.GetEnv("MIGRATIONS_PATH", "migrations"),
		"mysql://"+database.DSN()+"&multiStatements=true",
	)
	if err != nil {
		log.Fatalf("[Migrate] init failed: %v", err)
	}
	defer func() {
		if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
			log.Printf("[Migrate] close failed: %v, %v", sourceErr, dbErr)
		}
	}()

	if err := run(m, os.Args[1], os.Args[2:]); err != nil {
		log.Fatalf("[Migrate] %s: %v", os.Args[1], err)
	}
}

func run(m *migrate.Migrate, command string, args []string) error {
	switch command {
	case "up":
		return report(m.Up(), "all migrations applied")

	case "down":
		return report(m.Steps(-1), "rolled back one migration")

	case "goto":
		version, err := versionArg(args)
		if err != nil {
			return err
		}
		return report(m.Migrate(version), fmt.Sprintf("migrated to version %d", version))

	case "force":
		version, err := versionArg(args)
		if err != nil {
			return err
		}
		return report(m.Force(int(version)), fmt.Sprintf("forced version %d", version))

	case "status":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			log.Println("[Migrate] no migrations applied yet")
			return nil
		}
		if err != nil {
			return err
		}
		suffix := ""
		if dirty {
			suffix = " (dirty)"
		}
		log.Printf("[Migrate] current version: %d%s", version, suffix)
		return nil
	}

	printUsage()
	os.Exit(1)
	return nil
}

func report(err error, done string) error {
	if errors.Is(err, migrate.ErrNoChange) {
		log.Println("[Migrate] no change, database is up to date")
		return nil
	}
	if err != nil {
		return err
	}
	log.Printf("[Migrate] %s", done)
	return nil
}

func versionArg(args []string) (uint, error) {
	if len(args) == 0 {
		return 0, errors.New("missing version number")
	}
	v, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid version number: %w", err)
	}
	return uint(v), nil
}

func printUsage() {
	fmt.Println("Usage: go run ./cmd/migrate [command]")
	fmt.Println("Commands:")
	fmt.Println("  up       - apply all pending migrations")
	fmt.Println("  down     - roll back the last migration")
	fmt.Println("  goto N   - migrate to version N")
	fmt.Println("  force N  - set version N without running migrations")
	fmt.Println("  status   - print the current version")
}
