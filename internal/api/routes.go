package api

import (
	"net/http"

	"github.com/JaimeStill/protrace/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain) {
	routes.Register(
		mux,
		domain.Lookups.Handler().Routes(),
		domain.Runs.Handler().Routes(),
	)
}
