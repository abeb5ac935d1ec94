package ui

import (
	"fmt"
	"net/http"
	"strconv"

	"goord/domain/core"
	"goord/domain/session"
	"goord/domain/stats"
	apperrors "goord/internal/errors"
	"goord/internal/report"
	"goord/ports"

	"github.com/gin-gonic/gin"
	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// sessionSummary is the JSON shape returned for session-level endpoints
type sessionSummary struct {
	ID           string         `json:"id"`
	Samples      int            `json:"samples"`
	MatrixFile   string         `json:"matrix_file"`
	MetadataFile string         `json:"metadata_file"`
	Axes         int            `json:"axes"`
	Variables    []string       `json:"variables"`
	Warnings     []core.Warning `json:"warnings,omitempty"`
	CreatedAt    core.Timestamp `json:"created_at"`
}

func summarize(sess *session.Session) sessionSummary {
	vars := make([]string, 0, len(sess.Metadata.Variables()))
	for _, v := range sess.Metadata.Variables() {
		vars = append(vars, v.String())
	}
	return sessionSummary{
		ID:           sess.ID.String(),
		Samples:      sess.SampleCount(),
		MatrixFile:   sess.MatrixFile,
		MetadataFile: sess.MetadataFile,
		Axes:         sess.Ordination.AxisCount(),
		Variables:    vars,
		Warnings:     append(append([]core.Warning{}, sess.Warnings...), sess.Ordination.Warnings...),
		CreatedAt:    sess.CreatedAt,
	}
}

// respondError maps domain errors onto HTTP statuses. Nothing is
// swallowed: every failure is logged and surfaced with its code.
func (s *Server) respondError(c *gin.Context, err error) {
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
		s.logger.Error("request failed: %v", err)
	} else {
		s.logger.Warn("request rejected (%s): %v", code, err)
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

func (s *Server) handleCreateSession(c *gin.Context) {
	distHeader, err := c.FormFile("distance")
	if err != nil {
		s.respondError(c, apperrors.InvalidInput("missing distance matrix upload (field \"distance\")"))
		return
	}
	metaHeader, err := c.FormFile("metadata")
	if err != nil {
		s.respondError(c, apperrors.InvalidInput("missing metadata upload (field \"metadata\")"))
		return
	}

	dist, err := distHeader.Open()
	if err != nil {
		s.respondError(c, err)
		return
	}
	defer dist.Close()
	meta, err := metaHeader.Open()
	if err != nil {
		s.respondError(c, err)
		return
	}
	defer meta.Close()

	sess, err := s.pipeline.CreateSession(c.Request.Context(), dist, distHeader.Filename, meta, metaHeader.Filename)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, summarize(sess))
}

func (s *Server) sessionFromPath(c *gin.Context) (*session.Session, bool) {
	id, err := core.ParseSessionID(c.Param("id"))
	if err != nil {
		s.respondError(c, apperrors.InvalidInput(err.Error()))
		return nil, false
	}
	sess, err := s.pipeline.GetSession(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleGetSession(c *gin.Context) {
	sess, ok := s.sessionFromPath(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, summarize(sess))
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	id, err := core.ParseSessionID(c.Param("id"))
	if err != nil {
		s.respondError(c, apperrors.InvalidInput(err.Error()))
		return
	}
	if err := s.pipeline.DeleteSession(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id.String()})
}

func (s *Server) handleVariables(c *gin.Context) {
	sess, ok := s.sessionFromPath(c)
	if !ok {
		return
	}
	out := make([]stats.Classification, 0, len(sess.Classifications))
	for _, key := range sess.Metadata.Variables() {
		if cls, exists := sess.Classifications[key]; exists {
			out = append(out, cls)
		}
	}
	c.JSON(http.StatusOK, gin.H{"variables": out})
}

func (s *Server) handleOrdination(c *gin.Context) {
	sess, ok := s.sessionFromPath(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Ordination)
}

// testRequestBody is the JSON payload for POST /sessions/:id/tests.
// Seed is a pointer so "absent" and "zero" stay distinguishable.
type testRequestBody struct {
	Variable     string   `json:"variable" binding:"required"`
	Mode         string   `json:"mode"`
	Permutations int      `json:"permutations"`
	Seed         *int64   `json:"seed"`
	Source       string   `json:"source"`
	Axes         []string `json:"axes"`
}

func (s *Server) handleRunTest(c *gin.Context) {
	id, err := core.ParseSessionID(c.Param("id"))
	if err != nil {
		s.respondError(c, apperrors.InvalidInput(err.Error()))
		return
	}

	var body testRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.respondError(c, apperrors.InvalidInput(fmt.Sprintf("malformed test request: %v", err)))
		return
	}

	seed := s.cfg.Analysis.DefaultSeed
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

	result, err := s.pipeline.RunTest(c.Request.Context(), id, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handlePlot(c *gin.Context) {
	id, err := core.ParseSessionID(c.Param("id"))
	if err != nil {
		s.respondError(c, apperrors.InvalidInput(err.Error()))
		return
	}

	colorBy := c.Query("color")
	if colorBy == "" {
		s.respondError(c, apperrors.InvalidInput("missing ?color= variable"))
		return
	}

	spec := ports.PlotSpec{
		View:    ports.PlotView(c.DefaultQuery("view", string(ports.View2D))),
		XAxis:   c.DefaultQuery("x", "PC1"),
		YAxis:   c.DefaultQuery("y", "PC2"),
		ZAxis:   c.DefaultQuery("z", "PC3"),
		ColorBy: core.VariableKey(colorBy),
		Palette: c.Query("palette"),
		Format:  ports.ExportFormat(c.DefaultQuery("format", string(ports.FormatPNG))),
		Flips: map[string]bool{
			c.DefaultQuery("x", "PC1"): c.Query("flip_x") == "true",
			c.DefaultQuery("y", "PC2"): c.Query("flip_y") == "true",
			c.DefaultQuery("z", "PC3"): c.Query("flip_z") == "true",
		},
		Azimuth:   queryFloat(c, "azimuth", 45),
		Elevation: queryFloat(c, "elevation", 30),
	}

	data, err := s.pipeline.RenderPlot(c.Request.Context(), id, spec, stats.TypeMode(c.DefaultQuery("mode", string(stats.ModeAuto))))
	if err != nil {
		s.respondError(c, err)
		return
	}

	contentType := map[ports.ExportFormat]string{
		ports.FormatPNG: "image/png",
		ports.FormatSVG: "image/svg+xml",
		ports.FormatPDF: "application/pdf",
	}[spec.Format]
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	filename := fmt.Sprintf("%s_PCoA.%s", colorBy, spec.Format)
	if spec.View == ports.View3D {
		filename = fmt.Sprintf("%s_3D_PCoA.%s", colorBy, spec.Format)
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}

func (s *Server) handleReport(c *gin.Context) {
	sess, ok := s.sessionFromPath(c)
	if !ok {
		return
	}

	md := report.Markdown(sess)
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	rendered := markdown.ToHTML([]byte(md), p, renderer)

	c.HTML(http.StatusOK, "report.html", gin.H{
		"SessionID": sess.ID.String(),
		"Body":      templateHTML(rendered),
	})
}

func queryFloat(c *gin.Context, key string, fallback float64) float64 {
	if v := c.Query(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
