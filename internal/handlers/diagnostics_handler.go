package handlers

import (
	"context"
	"html/template"
	"log"
	"net/http"
)

// StatusChecker reports the state of the prediction model
type StatusChecker interface {
	Status(ctx context.Context) (interface{}, error)
}

// DiagnosticsHandler serves the model check pages and the route index
type DiagnosticsHandler struct {
	model StatusChecker
}

// NewDiagnosticsHandler creates a new diagnostics handler
func NewDiagnosticsHandler(model StatusChecker) *DiagnosticsHandler {
	return &DiagnosticsHandler{model: model}
}

// CheckPage renders a page that calls the model probe from the browser
func (h *DiagnosticsHandler) CheckPage(w http.ResponseWriter, r *http.Request) {
	renderHTML(w, checkPageTemplate, nil)
}

// CheckModel probes the model's status URL once
func (h *DiagnosticsHandler) CheckModel(w http.ResponseWriter, r *http.Request) {
	data, err := h.model.Status(r.Context())
	if err != nil {
		log.Printf("Model status check failed: %v", err)
		respondJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"status": "error",
			"error":  ErrModelUnavailable,
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "prediction model is reachable",
		"data":    data,
	})
}

// Index renders the route table
func (h *DiagnosticsHandler) Index(routes []Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderHTML(w, indexTemplate, routes)
	}
}

func renderHTML(w http.ResponseWriter, tmpl *template.Template, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		log.Printf("Failed to render %s page: %v", tmpl.Name(), err)
	}
}

var checkPageTemplate = template.Must(template.New("check").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Stuntcheck - Model Check</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; background: #f4f7f6; margin: 0; padding: 40px 20px; }
        .card { background: white; border-radius: 12px; padding: 32px; max-width: 640px; margin: 0 auto; box-shadow: 0 10px 30px rgba(0,0,0,0.08); }
        h1 { color: #2d6a4f; margin-top: 0; }
        button { background: #2d6a4f; color: white; border: 0; border-radius: 6px; padding: 10px 18px; font-size: 15px; cursor: pointer; }
        pre { background: #1b1b1b; color: #d8f3dc; padding: 16px; border-radius: 8px; overflow-x: auto; min-height: 40px; }
        .error { color: #c0392b; }
    </style>
</head>
<body>
    <div class="card">
        <h1>Prediction model check</h1>
        <p>Calls <code>/api/checking-flask</code> and shows the model's status response.</p>
        <button id="check">Check model</button>
        <pre id="result">Not checked yet.</pre>
    </div>
    <script>
        document.getElementById('check').addEventListener('click', async () => {
            const out = document.getElementById('result');
            out.textContent = 'Checking...';
            out.className = '';
            try {
                const res = await fetch('/api/checking-flask');
                const body = await res.json();
                out.textContent = JSON.stringify(body, null, 2);
                if (!res.ok) out.className = 'error';
            } catch (err) {
                out.textContent = 'Request failed: ' + err;
                out.className = 'error';
            }
        });
    </script>
</body>
</html>`))

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Stuntcheck API</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; margin: 40px; color: #222; }
        table { border-collapse: collapse; }
        th, td { text-align: left; padding: 6px 14px; border-bottom: 1px solid #e3e3e3; }
        code { color: #2d6a4f; }
    </style>
</head>
<body>
    <h1>Stuntcheck API</h1>
    <table>
        <tr><th>Method</th><th>Path</th><th>Auth</th><th>Description</th></tr>
        {{range .}}<tr><td>{{.Method}}</td><td><code>{{.Path}}</code></td><td>{{if .Auth}}bearer{{else}}-{{end}}</td><td>{{.Summary}}</td></tr>
        {{end}}
    </table>
</body>
</html>`))
