package handlers

import (
	"wedmarket/internal/cache"
	"wedmarket/internal/config"
	"wedmarket/internal/repos"
	"wedmarket/internal/services"
	"wedmarket/internal/storage"
)

type Deps struct {
	Auth       AdminAuth
	Catalog    *CatalogHandler
	Ads        *AdHandler
	Moderation *ModerationHandler
	Favorites  *FavoritesHandler
	Pages      *PageHandler

	// exposed for the composition root: the sweeper loop and the cache
	// subscription
	Sweeper      *services.ExpirySweeper
	FavoritesSvc *services.FavoritesService
}

func NewDeps(db *repos.DB, store storage.ObjectStore, c cache.Cache, cfg config.Config) *Deps {
	prodRepo := repos.NewProductRepo(db)
	adRepo := repos.NewAdRepo(db)
	subRepo := repos.NewSubmissionRepo(db)
	favRepo := repos.NewFavoritesRepo(db)

	catalogSvc := services.NewCatalogService(prodRepo, store)
	adSvc := services.NewAdService(adRepo, catalogSvc, nil)
	modSvc := services.NewModerationService(subRepo, catalogSvc, store, cfg.SubmissionFolder)
	favSvc := services.NewFavoritesService(favRepo, catalogSvc, c, cfg.FavoritesTTL)
	sweeper := services.NewExpirySweeper(adRepo, cfg.AdSweepInterval)

	return &Deps{
		Auth:         AdminAuth{Hash: cfg.AdminTokenHash},
		Catalog:      &CatalogHandler{Catalog: catalogSvc},
		Ads:          &AdHandler{Ads: adSvc, Sweeper: sweeper},
		Moderation:   &ModerationHandler{Moderation: modSvc},
		Favorites:    &FavoritesHandler{Favorites: favSvc},
		Pages:        &PageHandler{Ads: adSvc},
		Sweeper:      sweeper,
		FavoritesSvc: favSvc,
	}
}
