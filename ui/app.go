package ui

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"goord/domain/core"
	"goord/domain/session"
	"goord/domain/stats"
	"goord/internal"
	"goord/internal/config"
	apperrors "goord/internal/errors"
	"goord/internal/pipeline"
	"goord/internal/report"
	"goord/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// App is the headless JSON API: the same pipeline as the web UI with
// no templates, intended for scripted use.
type App struct {
	router   *chi.Mux
	pipeline *pipeline.Pipeline
	cfg      *config.Config
	logger   *internal.Logger
}

// NewApp creates the headless API application
func NewApp(cfg *config.Config, pl *pipeline.Pipeline) *App {
	app := &App{
		router:   chi.NewRouter(),
		pipeline: pl,
		cfg:      cfg,
		logger:   internal.DefaultLogger,
	}
	app.setupMiddleware()
	app.setupRoutes()
	return app
}

func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.RealIP)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
}

func (a *App) setupRoutes() {
	a.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		a.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	a.router.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", a.handleCreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", a.handleGetSession)
			r.Delete("/", a.handleDeleteSession)
			r.Get("/variables", a.handleVariables)
			r.Get("/ordination", a.handleOrdination)
			r.Post("/tests", a.handleRunTest)
			r.Get("/plot", a.handlePlot)
			r.Get("/report", a.handleReport)
		})
	})
}

// Run starts the API server on the configured API port
func (a *App) Run() error {
	addr := ":" + a.cfg.Server.APIPort
	a.logger.Info("api server listening on %s", addr)
	return http.ListenAndServe(addr, a.router)
}

// Handler exposes the router for tests
func (a *App) Handler() http.Handler {
	return a.router
}

func (a *App) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Error("response encode failed: %v", err)
	}
}

func (a *App) writeError(w http.ResponseWriter, err error) {
	code := apperrors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case apperrors.CodeValidationError, apperrors.CodeInvalidInput:
		status = http.StatusBadRequest
	case apperrors.CodeInsufficientData:
		status = http.StatusUnprocessableEntity
	case apperrors.CodeNotFound:
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		a.logger.Error("api request failed: %v", err)
	}
	a.writeJSON(w, status, map[string]string{"error": err.Error(), "code": code})
}

func (a *App) sessionFromPath(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id, err := core.ParseSessionID(chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, apperrors.InvalidInput(err.Error()))
		return nil, false
	}
	sess, err := a.pipeline.GetSession(r.Context(), id)
	if err != nil {
		a.writeError(w, err)
		return nil, false
	}
	return sess, true
}

func (a *App) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(a.cfg.Upload.MaxBytes); err != nil {
		a.writeError(w, apperrors.InvalidInput(fmt.Sprintf("malformed multipart upload: %v", err)))
		return
	}
	dist, distHeader, err := r.FormFile("distance")
	if err != nil {
		a.writeError(w, apperrors.InvalidInput("missing distance matrix upload (field \"distance\")"))
		return
	}
	defer dist.Close()
	meta, metaHeader, err := r.FormFile("metadata")
	if err != nil {
		a.writeError(w, apperrors.InvalidInput("missing metadata upload (field \"metadata\")"))
		return
	}
	defer meta.Close()

	sess, err := a.pipeline.CreateSession(r.Context(), dist, distHeader.Filename, meta, metaHeader.Filename)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, summarize(sess))
}

func (a *App) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.sessionFromPath(w, r)
	if !ok {
		return
	}
	a.writeJSON(w, http.StatusOK, summarize(sess))
}

func (a *App) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseSessionID(chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, apperrors.InvalidInput(err.Error()))
		return
	}
	if err := a.pipeline.DeleteSession(r.Context(), id); err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]string{"deleted": id.String()})
}

func (a *App) handleVariables(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.sessionFromPath(w, r)
	if !ok {
		return
	}
	out := make([]stats.Classification, 0, len(sess.Classifications))
	for _, key := range sess.Metadata.Variables() {
		if cls, exists := sess.Classifications[key]; exists {
			out = append(out, cls)
		}
	}
	a.writeJSON(w, http.StatusOK, map[string]interface{}{"variables": out})
}

func (a *App) handleOrdination(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.sessionFromPath(w, r)
	if !ok {
		return
	}
	a.writeJSON(w, http.StatusOK, sess.Ordination)
}

func (a *App) handleRunTest(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseSessionID(chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, apperrors.InvalidInput(err.Error()))
		return
	}

	var body testRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.writeError(w, apperrors.InvalidInput(fmt.Sprintf("malformed test request: %v", err)))
		return
	}
	if body.Variable == "" {
		a.writeError(w, apperrors.InvalidInput("missing \"variable\" in test request"))
		return
	}

	seed := a.cfg.Analysis.DefaultSeed
	if body.Seed != nil {
		seed = *body.Seed
	}
	req := stats.TestRequest{
		Variable:     core.VariableKey(body.Variable),
		Mode:         stats.TypeMode(body.Mode),
		Permutations: body.Permutations,
		Seed:         seed,
		Source:       stats.DistanceSource(body.Source),
		Axes:         body.Axes,
	}

	result, err := a.pipeline.RunTest(r.Context(), id, req)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, result)
}

func (a *App) handlePlot(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseSessionID(chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, apperrors.InvalidInput(err.Error()))
		return
	}

	q := r.URL.Query()
	colorBy := q.Get("color")
	if colorBy == "" {
		a.writeError(w, apperrors.InvalidInput("missing ?color= variable"))
		return
	}
	x := defaultQuery(q.Get("x"), "PC1")
	y := defaultQuery(q.Get("y"), "PC2")
	z := defaultQuery(q.Get("z"), "PC3")

	spec := ports.PlotSpec{
		View:    ports.PlotView(defaultQuery(q.Get("view"), string(ports.View2D))),
		XAxis:   x,
		YAxis:   y,
		ZAxis:   z,
		ColorBy: core.VariableKey(colorBy),
		Palette: q.Get("palette"),
		Format:  ports.ExportFormat(defaultQuery(q.Get("format"), string(ports.FormatPNG))),
		Flips: map[string]bool{
			x: q.Get("flip_x") == "true",
			y: q.Get("flip_y") == "true",
			z: q.Get("flip_z") == "true",
		},
		Azimuth:   parseFloatDefault(q.Get("azimuth"), 45),
		Elevation: parseFloatDefault(q.Get("elevation"), 30),
	}

	data, err := a.pipeline.RenderPlot(r.Context(), id, spec, stats.TypeMode(defaultQuery(q.Get("mode"), string(stats.ModeAuto))))
	if err != nil {
		a.writeError(w, err)
		return
	}

	contentType := map[ports.ExportFormat]string{
		ports.FormatPNG: "image/png",
		ports.FormatSVG: "image/svg+xml",
		ports.FormatPDF: "application/pdf",
	}[spec.Format]
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (a *App) handleReport(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.sessionFromPath(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, report.Markdown(sess))
}

func defaultQuery(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func parseFloatDefault(v string, fallback float64) float64 {
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
