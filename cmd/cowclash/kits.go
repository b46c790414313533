package main

import (
	"context"
	"os"

	"github.com/koustreak/cowclash/internal/config"
	"github.com/koustreak/cowclash/internal/errs"
	"github.com/koustreak/cowclash/internal/filestore/minio"
	"github.com/koustreak/cowclash/internal/kit"
	"github.com/koustreak/cowclash/internal/logger"
)

type kitSaver interface {
	SaveAll(ctx context.Context, kits []kit.Kit) error
}

// syncKits saves the kits from the configured file, then those from the
// object store.
func syncKits(ctx context.Context, cfg config.KitsConfig, repo kitSaver, log *logger.Logger) error {
	if cfg.File != "" {
		kits, err := loadKitFile(cfg.File)
		if err != nil {
			return err
		}
		if err := repo.SaveAll(ctx, kits); err != nil {
			return err
		}
		log.InfoWith("kits loaded", map[string]interface{}{"source": cfg.File, "count": len(kits)})
	}

	if cfg.Store != nil {
		store, err := minio.New(ctx, &cfg.Store.Config)
		if err != nil {
			return err
		}
		defer store.Close()

		kits, err := kit.LoadFromStore(ctx, store, cfg.Store.DefaultBucket, cfg.Store.Prefix)
		if err != nil {
			return err
		}
		if err := repo.SaveAll(ctx, kits); err != nil {
			return err
		}
		log.InfoWith("kits loaded", map[string]interface{}{
			"source": cfg.Store.DefaultBucket + "/" + cfg.Store.Prefix,
			"count":  len(kits),
		})
	}
	return nil
}

func loadKitFile(path string) ([]kit.Kit, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrKindNotFound, "kit file not found", err)
		}
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "open kit file", err)
	}
	defer f.Close()
	return kit.LoadYAML(f)
}
