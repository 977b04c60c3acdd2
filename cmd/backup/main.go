// Package main provides a backup and restore tool for the Grimoire catalog.
//
// Usage:
//
//	go run ./cmd/backup                       # create a backup
//	go run ./cmd/backup -list                 # list existing backups
//	go run ./cmd/backup -restore backup.zip   # restore from an archive
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/grimoireapp/grimoire-server/internal/backup"
	"github.com/grimoireapp/grimoire-server/internal/config"
	"github.com/grimoireapp/grimoire-server/internal/logger"
	"github.com/grimoireapp/grimoire-server/internal/store"
)

var (
	listBackups = flag.Bool("list", false, "List existing backups")
	restorePath = flag.String("restore", "", "Restore from the given backup archive")
	noImages    = flag.Bool("no-images", false, "Exclude cover assets from the backup")
)

func main() {
	// Flags are parsed inside LoadConfig together with the config flags.
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: slog.LevelWarn})

	s, err := store.New(filepath.Join(cfg.Assets.BasePath, "grimoire.db"), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	imagesDir := filepath.Join(cfg.Assets.BasePath, "images")
	backupDir := filepath.Join(cfg.Assets.BasePath, "backups")
	ctx := context.Background()

	switch {
	case *listBackups:
		svc := backup.NewService(s, backupDir, imagesDir, log.Logger)
		infos, err := svc.List()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to list backups: %v\n", err)
			os.Exit(1)
		}
		if len(infos) == 0 {
			fmt.Println("No backups found")
			return
		}
		for _, info := range infos {
			fmt.Printf("%s  %d bytes  %s\n", info.CreatedAt.Format("2006-01-02 15:04:05"), info.Size, info.Path)
		}

	case *restorePath != "":
		svc := backup.NewRestoreService(s, imagesDir, log.Logger)
		result, err := svc.Restore(ctx, *restorePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Restore failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Restored %d records (%d skipped, %d images) in %s\n",
			result.Imported, result.Skipped, result.Images, result.Duration)

	default:
		svc := backup.NewService(s, backupDir, imagesDir, log.Logger)
		result, err := svc.Create(ctx, backup.Options{IncludeImages: !*noImages})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Backup failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Backup written to %s (%d books, %d users, %d images)\n",
			result.Path, result.Counts.Books, result.Counts.Users, result.Counts.Images)
	}
}
