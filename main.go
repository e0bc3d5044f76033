package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mbolis/surveyforge/app"
	"github.com/mbolis/surveyforge/config"
	"github.com/mbolis/surveyforge/log"
	"github.com/mbolis/surveyforge/routes"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	srv, err := app.New(context.Background(), cfg)
	if err != nil {
		log.Fatal("main.app:", err)
	}
	defer srv.Close()

	handler := routes.Wire(srv)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
