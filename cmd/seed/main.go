package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/swiftportal/internal/logging"
	"github.com/dmitrijs2005/swiftportal/internal/seed"
	"github.com/dmitrijs2005/swiftportal/internal/server/auth"
	"github.com/dmitrijs2005/swiftportal/internal/server/config"
	"github.com/dmitrijs2005/swiftportal/internal/server/repositories/repomanager"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewJSONLogger(os.Stderr, cfg.LogLevel)

	in, err := seed.ParseOptions(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	in, err = seed.Complete(in, bufio.NewReader(os.Stdin), os.Stdout, os.LookupEnv)
	if err != nil {
		log.Fatalf("%v", err)
	}

	db, err := repomanager.OpenPostgres(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		log.Fatalf("%v", err)
	}

	hasher, err := auth.NewPasswordHasher(cfg.BcryptCost)
	if err != nil {
		log.Fatalf("%v", err)
	}

	e, err := seed.NewSeeder(rm.Employees(db), hasher, logger).Seed(ctx, in)
	if err != nil {
		log.Fatalf("%v", err)
	}

	fmt.Printf("employee %s seeded, employee number %s\n", e.Username, e.EmployeeNumber)
}
