package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"labportal/internal/config"
	"labportal/internal/database"
	"labportal/internal/models"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type ItemsConfig struct {
	Items []models.Item `yaml:"items"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		itemsPath = flag.String("items", "configs/items.yaml", "path to items.yaml")
		dbPath    = flag.String("db", "./data/labportal.db", "path to sqlite db")
	)
	flag.Parse()

	data, err := os.ReadFile(*itemsPath)
	if err != nil {
		return fmt.Errorf("read items: %w", err)
	}
	var cfg ItemsConfig
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse items: %w", err)
	}
	if len(cfg.Items) == 0 {
		return fmt.Errorf("no items in yaml")
	}
	if err = config.ValidateItems(cfg.Items); err != nil {
		return err
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created, updated, skipped := 0, 0, 0
	for i := range cfg.Items {
		it := cfg.Items[i]
		current, err := db.GetItem(ctx, it.ID)
		switch {
		case err == nil:
			if current.Type != it.Type {
				logger.Warn().Str("item_id", it.ID).Str("type", string(current.Type)).Msg("item type cannot change, skipping")
				skipped++
				continue
			}
			if err = db.UpdateItem(ctx, &it); err != nil {
				return fmt.Errorf("update %s: %w", it.ID, err)
			}
			updated++
		case errors.Is(err, database.ErrNotFound):
			if err = db.CreateItem(ctx, &it); err != nil {
				return fmt.Errorf("create %s: %w", it.ID, err)
			}
			created++
		default:
			return fmt.Errorf("get %s: %w", it.ID, err)
		}
	}

	fmt.Printf("done: created=%d updated=%d skipped=%d\n", created, updated, skipped)
	return nil
}
