package routes

import (
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/mbolis/surveyforge/app"
	"github.com/mbolis/surveyforge/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.RealIP, middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))

	root.
		With(middlewares.CookieAuth(app.BearerServer), middlewares.Admin(app.TokenSecret)).
		Mount("/admin", servePrivateFiles(app.PrivateDir, "/admin"))
	root.Mount("/", servePublicFiles(app.PublicDir))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Route("/public/surveys", func(r chi.Router) {
		r.Get(`/{id:^\d+$}`, PublicGetSurveyById(app))
		r.Post(`/{id:^\d+$}/responses`, PublicSubmitResponse(app))
	})

	api.Group(func(r chi.Router) {
		r.Use(middlewares.Admin(app.TokenSecret))

		// CRUD survey
		r.Post("/surveys", CreateSurvey(app))
		r.Get("/surveys", ListSurveys(app))
		r.Get(`/surveys/{id:^\d+$}`, GetSurveyById(app))
		r.Put(`/surveys/{id:^\d+$}`, UpdateSurvey(app))
		r.Delete(`/surveys/{id:^\d+$}`, DeleteSurvey(app))

		r.Post(`/surveys/{id:^\d+$}/duplicate`, DuplicateSurvey(app))
		r.Post(`/surveys/{id:^\d+$}/publish`, PublishSurvey(app))
		r.Get(`/surveys/{id:^\d+$}/analytics`, SurveyAnalytics(app))
	})

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	return api
}

func servePublicFiles(dir string) http.Handler {
	return http.FileServer(http.Dir(dir))
}

func servePrivateFiles(dir, path string) http.Handler {
	return http.StripPrefix(path, http.FileServer(http.Dir(dir)))
}
