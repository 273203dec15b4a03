package handler

import (
	"fmt"
	"net/http"

	"github.com/josh-kwaku/finance-ledger/internal/logging"
)

// Docs serves the embedded OpenAPI document and a Swagger UI page that
// loads it from SpecPath.
type Docs struct {
	Spec     []byte
	SpecPath string
}

func (d Docs) ServeSpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := w.Write(d.Spec); err != nil {
		logWriteError(r, err)
	}
}

func (d Docs) ServeUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := fmt.Fprintf(w, swaggerPage, d.SpecPath); err != nil {
		logWriteError(r, err)
	}
}

func logWriteError(r *http.Request, err error) {
	logging.FromContext(r.Context()).Warn("failed to write docs response", "path", r.URL.Path, "error", err)
}

const swaggerPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Finance Ledger API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({url: %q, dom_id: "#swagger-ui", deepLinking: true});
  </script>
</body>
</html>`
