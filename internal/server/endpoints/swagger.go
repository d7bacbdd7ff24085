package endpoints

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/swaggo/swag"

	_ "github.com/jackzampolin/toccata/docs/swagger"
)

const swaggerUI = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Toccata API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.onload = function() {
      SwaggerUIBundle({
        url: "/swagger.json",
        dom_id: "#swagger-ui"
      });
    };
  </script>
</body>
</html>`

// SwaggerJSONEndpoint serves the OpenAPI document at /swagger.json.
type SwaggerJSONEndpoint struct{}

func (e *SwaggerJSONEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/swagger.json", e.handler
}

func (e *SwaggerJSONEndpoint) RequiresInit() bool { return false }

func (e *SwaggerJSONEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, doc)
}

func (e *SwaggerJSONEndpoint) Command(getServerURL func() string) *cobra.Command {
	return nil
}

// SwaggerUIEndpoint serves an interactive API browser at /swagger.
type SwaggerUIEndpoint struct{}

func (e *SwaggerUIEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/swagger", e.handler
}

func (e *SwaggerUIEndpoint) RequiresInit() bool { return false }

func (e *SwaggerUIEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, swaggerUI)
}

func (e *SwaggerUIEndpoint) Command(getServerURL func() string) *cobra.Command {
	return nil
}
