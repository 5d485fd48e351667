package server

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/raysh454/sitebots/internal/app"
	"github.com/raysh454/sitebots/internal/logging"
	"github.com/raysh454/sitebots/internal/webclient"
)

type Config struct {
	// ListenAddr is the HTTP listen address for the API server. Empty falls
	// back to AppConfig.Server.Addr.
	ListenAddr string

	AppConfig *app.Config
	Logger    logging.Logger

	// WebClient replaces the backend built from AppConfig.WebClient. A
	// client passed in here is not closed by Server.Close.
	WebClient webclient.WebClient

	// Registry receives the API and analysis collectors and backs /metrics.
	// Nil creates a private registry.
	Registry *prometheus.Registry

	// Options are passed through to the orchestrator.
	Options []app.Option
}
