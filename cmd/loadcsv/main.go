package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"movie-catalog/internal/config"
	"movie-catalog/internal/database"
	"movie-catalog/internal/repository"
	"movie-catalog/internal/services"

	"github.com/sirupsen/logrus"
)

func main() {
	config.LoadEnvFile()

	cfg := config.Load()

	var (
		source string
		upload bool
	)
	flag.StringVar(&source, "source", cfg.Import.Source, "Dataset path or s3://bucket/object")
	flag.BoolVar(&upload, "upload", false, "Stage a local dataset in the MinIO bucket before loading it")
	flag.Parse()

	log := config.NewLogger(cfg.Server.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Import.Timeout)
	defer cancel()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Errorf("Error closing database connection: %v", err)
		}
	}()

	var opener services.DatasetOpener
	_, _, remote := services.ParseObjectURI(source)
	if remote || upload {
		if err := cfg.ValidateMinIO(); err != nil {
			log.Fatalf("Invalid MinIO configuration: %v", err)
		}
		storage, err := services.NewDatasetStorage(&cfg.MinIO, log)
		if err != nil {
			log.Fatalf("Failed to initialize MinIO storage: %v", err)
		}
		opener = storage

		if upload && !remote {
			source, err = stage(ctx, storage, source)
			if err != nil {
				log.Fatalf("Failed to stage dataset: %v", err)
			}
		}
	}

	loader := services.NewCatalogLoader(repository.NewMovieRepository(db), repository.NewGenreRepository(db), log)
	report, err := loader.LoadSource(ctx, source, opener)
	if err != nil {
		log.WithError(err).WithField("source", source).Fatal("Catalog load failed")
	}

	log.WithFields(logrus.Fields{
		"source":  source,
		"genres":  report.Genres,
		"movies":  report.Movies,
		"skipped": report.Skipped,
	}).Info("Catalog load completed")
}

func stage(ctx context.Context, storage *services.DatasetStorage, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	return storage.Upload(ctx, path, f, info.Size())
}
