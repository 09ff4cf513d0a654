package server

import (
	"github.com/hyperdocs/hyperdocs/internal/app"
	"github.com/hyperdocs/hyperdocs/internal/logging"
)

type Config struct {
	// AppConfig builds the Application when none is supplied.
	AppConfig *app.Config
	Logger    logging.Logger

	// Application is served as is when set; the Server then does not shut
	// it down on Close.
	Application *app.Application
}
