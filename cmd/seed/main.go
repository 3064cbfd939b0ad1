// Command seed loads the country catalog and generates the question bank.
package main

import (
	"context"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"geoquiz/config"
	"geoquiz/logging"
	"geoquiz/models"
	"geoquiz/seed"

	"go.uber.org/zap"
)

func main() {
	var file string
	var seedVal int64
	flag.StringVar(&file, "file", "", "YAML country catalog (default: bundled catalog)")
	flag.Int64Var(&seedVal, "seed", 0, "random seed for distractor selection (0 = random)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	countries, err := loadCountries(file)
	if err != nil {
		log.Fatal("failed to load countries", zap.String("file", file), zap.Error(err))
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := models.Migrate(db); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	if seedVal == 0 {
		seedVal = time.Now().UnixNano()
	}
	if _, err := seed.Run(ctx, db, countries, rand.New(rand.NewSource(seedVal)), log); err != nil {
		log.Fatal("seeding failed", zap.Error(err))
	}
}

func loadCountries(file string) ([]models.Country, error) {
	if file == "" {
		return seed.DefaultCountries()
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return seed.LoadCountries(f)
}
