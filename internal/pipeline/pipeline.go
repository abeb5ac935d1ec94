// Package pipeline wires the analysis stages into explicit calls:
// load, classify, ordinate, test, render. Each user action maps to one
// method; there is no reactive recomputation, downstream state is
// rebuilt synchronously when its inputs change.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"goord/domain/core"
	"goord/domain/session"
	"goord/domain/stats"
	"goord/internal"
	"goord/internal/classify"
	"goord/internal/config"
	"goord/internal/pcoa"
	"goord/internal/permtest"
	"goord/ports"
)

// Pipeline orchestrates the analysis stages over per-session state
type Pipeline struct {
	reader     ports.DatasetReaderPort
	sessions   ports.SessionRepository
	renderer   ports.RendererPort
	classifier *classify.Classifier
	tester     *permtest.Tester
	cfg        config.AnalysisConfig
	logger     *internal.Logger
}

// Deps collects the pipeline's collaborators
type Deps struct {
	Reader   ports.DatasetReaderPort
	Sessions ports.SessionRepository
	Renderer ports.RendererPort
	RNG      ports.RNGPort
	Config   config.AnalysisConfig
	Logger   *internal.Logger
}

// New creates a pipeline
func New(deps Deps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Pipeline{
		reader:     deps.Reader,
		sessions:   deps.Sessions,
		renderer:   deps.Renderer,
		classifier: classify.New(deps.Config.CategoricalThreshold),
		tester:     permtest.NewTester(deps.RNG),
		cfg:        deps.Config,
		logger:     logger,
	}
}

// CreateSession runs the load stage: parse both files, validate,
// restrict to the common sample set, classify every variable, and
// compute the ordination. The returned session is stored and ready for
// testing and plotting.
func (p *Pipeline) CreateSession(ctx context.Context, dist io.Reader, distName string, meta io.Reader, metaName string) (*session.Session, error) {
	dm, err := p.reader.ReadDistanceMatrix(dist, distName)
	if err != nil {
		return nil, err
	}
	md, err := p.reader.ReadMetadata(meta, metaName)
	if err != nil {
		return nil, err
	}

	// Intersect on sample IDs, keeping matrix row order.
	common := make([]core.SampleID, 0, dm.Size())
	for _, id := range dm.IDs() {
		if md.Contains(id) {
			common = append(common, id)
		}
	}
	if len(common) == 0 {
		return nil, core.ErrNoCommonSamples
	}

	var warnings []core.Warning
	if dropped := dm.Size() - len(common); dropped > 0 {
		warnings = append(warnings, core.NewWarning(core.WarnDroppedSamples,
			"%d matrix sample(s) missing from metadata were dropped", dropped))
	}
	if dropped := md.Size() - len(common); dropped > 0 {
		warnings = append(warnings, core.NewWarning(core.WarnDroppedSamples,
			"%d metadata sample(s) missing from the matrix were dropped", dropped))
	}

	dm, err = dm.Subset(common)
	if err != nil {
		return nil, err
	}
	md, err = md.Subset(common)
	if err != nil {
		return nil, err
	}

	classifications, err := p.classifier.ClassifyAll(md)
	if err != nil {
		return nil, err
	}

	ord, err := pcoa.Compute(dm)
	if err != nil {
		return nil, err
	}

	now := core.Now()
	sess := &session.Session{
		ID:              core.NewSessionID(),
		Distance:        dm,
		Metadata:        md,
		Ordination:      ord,
		Classifications: classifications,
		MatrixFile:      distName,
		MetadataFile:    metaName,
		Warnings:        warnings,
		CreatedAt:       now,
		AccessedAt:      now,
	}
	if err := p.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}

	p.logger.Info("session %s created: %d samples, %d variables, %d ordination axes",
		sess.ID, dm.Size(), len(md.Variables()), ord.AxisCount())
	return sess, nil
}

// GetSession fetches a live session
func (p *Pipeline) GetSession(ctx context.Context, id core.SessionID) (*session.Session, error) {
	return p.sessions.Get(ctx, id)
}

// DeleteSession discards all session state
func (p *Pipeline) DeleteSession(ctx context.Context, id core.SessionID) error {
	return p.sessions.Delete(ctx, id)
}

// RunTest executes a significance test against the session's data and
// caches the result on the session.
func (p *Pipeline) RunTest(ctx context.Context, id core.SessionID, req stats.TestRequest) (*stats.TestResult, error) {
	sess, err := p.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Permutations == 0 {
		req.Permutations = p.cfg.DefaultPermutations
	}
	if req.Permutations < 1 {
		return nil, core.NewValidationError("test request", "permutation count must be a positive integer")
	}
	if req.Permutations > p.cfg.MaxPermutations {
		return nil, core.NewValidationError("test request",
			fmt.Sprintf("permutation count %d exceeds the maximum %d", req.Permutations, p.cfg.MaxPermutations))
	}
	if req.Mode == "" {
		req.Mode = stats.ModeAuto
	}
	if req.Source == "" {
		req.Source = stats.SourceOrdination
	}

	cls, ok := sess.Classification(req.Variable)
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrVariableNotFound, req.Variable)
	}

	result, err := p.tester.Run(ctx, sess.Distance, sess.Metadata, sess.Ordination, cls, req)
	if err != nil {
		return nil, err
	}

	sess.LastTest = result
	if err := p.sessions.Update(ctx, sess); err != nil {
		return nil, err
	}

	p.logger.Info("session %s: %s on %q gave statistic %.4f, p=%.4g (%d permutations, seed %d)",
		id, result.Kind, req.Variable, result.Statistic, result.PValue, result.Permutations, result.Seed)
	return result, nil
}

// RenderPlot draws a scatter of the session's ordination. The variable
// type resolved by the classifier (or the mode override) decides
// categorical versus continuous coloring and the default palette.
func (p *Pipeline) RenderPlot(ctx context.Context, id core.SessionID, spec ports.PlotSpec, mode stats.TypeMode) ([]byte, error) {
	sess, err := p.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	cls, ok := sess.Classification(spec.ColorBy)
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrVariableNotFound, spec.ColorBy)
	}
	spec.Categorical = classify.Resolve(cls, mode) == stats.TypeCategorical
	if spec.Palette == "" {
		if spec.Categorical {
			spec.Palette = "set1"
		} else {
			spec.Palette = "viridis"
		}
	}

	return p.renderer.Render(sess.Ordination, sess.Metadata, spec)
}

// StartSweeper runs TTL cleanup until ctx is done
func (p *Pipeline) StartSweeper(ctx context.Context, ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := p.sessions.CleanupExpired(ctx, ttl)
				if err != nil {
					p.logger.Warn("session cleanup failed: %v", err)
					continue
				}
				if removed > 0 {
					p.logger.Info("session cleanup removed %d expired session(s)", removed)
				}
			}
		}
	}()
}
