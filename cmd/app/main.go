package main

import (
	"context"
	"flag"
	"log"
	"os"

	"SmartMoney/internal/di"
	"SmartMoney/internal/domain/models"
	"SmartMoney/internal/service/export"
	"SmartMoney/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	once := flag.Bool("once", false, "run a single screening and exit")
	refresh := flag.Bool("refresh", false, "ignore cached results for -once")
	out := flag.String("out", "", "write the -once result table to this xlsx file")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s provider=%s benchmark=%s", cfg.Environment, cfg.MarketData.Provider, cfg.Screener.Benchmark)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	if !*once {
		if err := app.Run(); err != nil {
			log.Printf("app error: %v", err)
			os.Exit(1)
		}
		return
	}

	defer app.Close()
	res, err := app.RunOnce(context.Background(), *refresh)
	if err != nil {
		log.Printf("screening failed: %v", err)
		app.Close()
		os.Exit(1)
	}
	if *out == "" {
		return
	}
	if err := writeReport(*out, res.Result.Records); err != nil {
		log.Printf("export: %v", err)
		app.Close()
		os.Exit(1)
	}
	log.Printf("wrote %d rows to %s", len(res.Result.Records), *out)
}

// writeReport writes the result table to path as xlsx.
func writeReport(path string, recs []models.ScoreRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteXLSX(f, recs); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
