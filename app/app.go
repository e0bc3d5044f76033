package app

import (
	"context"
	"database/sql"

	"github.com/go-chi/oauth"
	"github.com/mbolis/surveyforge/config"
	"github.com/mbolis/surveyforge/database"
	"github.com/mbolis/surveyforge/httpx"
	"github.com/mbolis/surveyforge/log"
)

// App bundles what every handler needs.
type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config
}

// New opens the database named by cfg, seeds the configured admin account
// and sets up token issuing.
func New(ctx context.Context, cfg config.Config) (App, error) {
	db, err := database.Open(cfg.DBUrl)
	if err != nil {
		return App{}, err
	}

	if cfg.AdminUser != "" {
		if err := database.EnsureUser(ctx, db, cfg.AdminUser, cfg.AdminPassword); err != nil {
			db.Close()
			return App{}, err
		}
		log.Infof("app.admin: account %q ready", cfg.AdminUser)
	}

	return App{
		DB:           db,
		BearerServer: httpx.NewBearerServer(db, cfg.TokenSecret, cfg.TokenTTL),
		Config:       cfg,
	}, nil
}
