package endpoints

import (
	"github.com/jackzampolin/toccata/internal/api"
)

// All returns every endpoint the server exposes.
func All() []api.Endpoint {
	return []api.Endpoint{
		&HealthEndpoint{},
		&StatusEndpoint{},
		&TocExtractEndpoint{},
		&TocProcessEndpoint{},
		&RunsListEndpoint{},
		&RunGetEndpoint{},
		&SwaggerJSONEndpoint{},
		&SwaggerUIEndpoint{},
	}
}
