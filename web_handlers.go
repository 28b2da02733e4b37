package main

import (
	"errors"
	"html/template"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// WebHandler handles HTML requests
type WebHandler struct {
	DB        *DB
	AISafety  *AISafetyService
	templates *template.Template
}

const searchPageHTML = `<!DOCTYPE html>
<html>
<head>
	<title>{{.Title}}</title>
	<meta charset="utf-8">
	<style>
		body { font-family: sans-serif; max-width: 960px; margin: 2rem auto; padding: 0 1rem; }
		input[type=text] { width: 60%; padding: 0.5rem; }
		button { padding: 0.5rem 1rem; }
		table { border-collapse: collapse; width: 100%; margin-top: 1rem; }
		th, td { border: 1px solid #ccc; padding: 0.4rem 0.6rem; text-align: left; }
		.danger { color: #b00020; font-weight: bold; }
		.warning { color: #c77700; font-weight: bold; }
	</style>
</head>
<body>
	<h1>ChemSafe</h1>
	<form method="post" action="/search">
		<input type="text" name="query" placeholder="Name, CAS number or formula" value="{{.Query}}">
		<button type="submit">Search</button>
	</form>
	{{template "results" .}}
</body>
</html>`

const resultsPartialHTML = `{{define "results"}}
{{if .Chemicals}}
<p>{{.Count}} result(s)</p>
<table>
	<tr><th>Name</th><th>CAS</th><th>Formula</th><th>Weight</th><th>Signal Word</th></tr>
	{{range .Chemicals}}
	<tr>
		<td><a href="/chemicals/{{.CASNumber}}">{{.Name}}</a></td>
		<td>{{.CASNumber}}</td>
		<td>{{.MolecularFormula}}</td>
		<td>{{if .MolecularWeight}}{{printf "%.2f" .MolecularWeight}}{{end}}</td>
		<td class="{{if eq .SignalWord "Danger"}}danger{{else if eq .SignalWord "Warning"}}warning{{end}}">{{.SignalWord}}</td>
	</tr>
	{{end}}
</table>
{{else if .Query}}
<p>No chemicals matched "{{.Query}}".</p>
{{end}}
{{end}}`

const detailPageHTML = `{{define "detail"}}<!DOCTYPE html>
<html>
<head>
	<title>{{.Title}}</title>
	<meta charset="utf-8">
	<style>
		body { font-family: sans-serif; max-width: 960px; margin: 2rem auto; padding: 0 1rem; }
		dt { font-weight: bold; margin-top: 0.5rem; }
		.danger { color: #b00020; font-weight: bold; }
		.warning { color: #c77700; font-weight: bold; }
		pre { white-space: pre-wrap; background: #f6f6f6; padding: 1rem; }
	</style>
</head>
<body>
	<p><a href="/">&larr; Back to search</a></p>
	<h1>{{.Chemical.Name}}</h1>
	<dl>
		{{with .Chemical.CASNumber.String}}<dt>CAS Number</dt><dd>{{.}}</dd>{{end}}
		{{with .Chemical.MolecularFormula.String}}<dt>Molecular Formula</dt><dd>{{.}}</dd>{{end}}
		{{if .Chemical.MolecularWeight.Valid}}<dt>Molecular Weight</dt><dd>{{printf "%.2f" .Chemical.MolecularWeight.Float64}} g/mol</dd>{{end}}
		{{with .Chemical.IUPACName.String}}<dt>IUPAC Name</dt><dd>{{.}}</dd>{{end}}
		{{with .Chemical.MeltingPoint.String}}<dt>Melting Point</dt><dd>{{.}}</dd>{{end}}
		{{with .Chemical.BoilingPoint.String}}<dt>Boiling Point</dt><dd>{{.}}</dd>{{end}}
		{{with .Chemical.Density.String}}<dt>Density</dt><dd>{{.}}</dd>{{end}}
		{{with .Chemical.FlashPoint.String}}<dt>Flash Point</dt><dd>{{.}}</dd>{{end}}
		{{with .Chemical.PhysicalState.String}}<dt>Physical State</dt><dd>{{.}}</dd>{{end}}
		{{with .Chemical.SignalWord.String}}<dt>Signal Word</dt><dd class="{{if eq . "Danger"}}danger{{else}}warning{{end}}">{{.}}</dd>{{end}}
		{{with .Chemical.HazardStatements.String}}<dt>Hazard Statements</dt><dd>{{.}}</dd>{{end}}
		{{with .Chemical.PrecautionaryStatements.String}}<dt>Precautionary Statements</dt><dd>{{.}}</dd>{{end}}
		{{with .Chemical.LD50.String}}<dt>LD50</dt><dd>{{.}}</dd>{{end}}
		{{with .Chemical.LC50.String}}<dt>LC50</dt><dd>{{.}}</dd>{{end}}
		{{with .Chemical.AcuteToxicityNotes.String}}<dt>Acute Toxicity Notes</dt><dd>{{.}}</dd>{{end}}
	</dl>
	{{if .Summary}}
	<h2>AI Safety Summary</h2>
	<pre>{{.Summary.MarkdownContent}}</pre>
	{{else if .AIAvailable}}
	<form method="post" action="/chemicals/{{.Chemical.CASNumber.String}}/summary">
		<button type="submit">Generate AI safety summary</button>
	</form>
	{{end}}
</body>
</html>{{end}}`

// NewWebHandler creates a new WebHandler with parsed templates
func NewWebHandler(db *DB, aiSafety *AISafetyService) *WebHandler {
	tmpl := template.Must(template.New("search").Parse(searchPageHTML))
	template.Must(tmpl.Parse(resultsPartialHTML))
	template.Must(tmpl.Parse(detailPageHTML))
	return &WebHandler{
		DB:        db,
		AISafety:  aiSafety,
		templates: tmpl,
	}
}

// SearchPage renders the main search page
func (h *WebHandler) SearchPage(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"Title": "ChemSafe",
		"Query": r.URL.Query().Get("q"),
	}

	if err := h.templates.ExecuteTemplate(w, "search", data); err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// SearchResults handles search requests and renders the search page with
// results filled in.
func (h *WebHandler) SearchResults(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	query := r.FormValue("query")

	chemicals, err := h.DB.SearchChemicals(query, maxResults)
	if err != nil {
		log.Printf("Search error: %v", err)
		http.Error(w, "Search failed", http.StatusInternalServerError)
		return
	}

	summaries := make([]ChemicalSummary, 0, len(chemicals))
	for i := range chemicals {
		summaries = append(summaries, chemicals[i].Summary())
	}

	data := map[string]interface{}{
		"Title":     "ChemSafe",
		"Chemicals": summaries,
		"Query":     query,
		"Count":     len(summaries),
	}

	if err := h.templates.ExecuteTemplate(w, "search", data); err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// ChemicalDetail renders the chemical detail page
func (h *WebHandler) ChemicalDetail(w http.ResponseWriter, r *http.Request) {
	cas := chi.URLParam(r, "cas")

	chem, err := h.DB.GetChemicalByCAS(cas)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		log.Printf("Database error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Show a cached summary when one exists; never trigger generation on GET.
	var summary *SafetySummary
	if h.AISafety != nil {
		if name, model, markdown, generatedAt, err := h.DB.LoadAISummaryCache(cas, h.AISafety.cacheTTL); err == nil {
			summary = &SafetySummary{
				CASNumber:       cas,
				ChemicalName:    name,
				Model:           model,
				MarkdownContent: markdown,
				GeneratedAt:     generatedAt,
			}
		}
	}

	data := map[string]interface{}{
		"Title":       chem.Name,
		"Chemical":    chem,
		"Summary":     summary,
		"AIAvailable": h.AISafety != nil,
	}

	if err := h.templates.ExecuteTemplate(w, "detail", data); err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// GenerateSummary generates (or loads) the AI safety summary and re-renders
// the detail page.
func (h *WebHandler) GenerateSummary(w http.ResponseWriter, r *http.Request) {
	cas := chi.URLParam(r, "cas")

	chem, err := h.DB.GetChemicalByCAS(cas)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		log.Printf("Database error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if h.AISafety == nil {
		http.Error(w, "AI summaries not available: ANTHROPIC_API_KEY not set", http.StatusServiceUnavailable)
		return
	}

	summary, err := h.AISafety.GenerateSafetySummary(r.Context(), chem)
	if err != nil {
		log.Printf("AI summary error: %v", err)
		http.Error(w, "AI summary failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"Title":       chem.Name,
		"Chemical":    chem,
		"Summary":     summary,
		"AIAvailable": true,
	}

	if err := h.templates.ExecuteTemplate(w, "detail", data); err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
