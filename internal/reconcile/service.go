package reconcile

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/underwrite/internal/apperr"
	"github.com/sells-group/underwrite/internal/model"
)

// Repository is the reconciliation read/write surface.
type Repository interface {
	ProjectExists(ctx context.Context, projectID int64) (bool, error)
	// LatestIndications returns the most recent value of each approach.
	LatestIndications(ctx context.Context, projectID int64) (model.Indications, error)
	// GetReconciliation returns nil, nil when nothing has been saved.
	GetReconciliation(ctx context.Context, projectID int64) (*model.ReconciliationRecord, error)
	// UpsertReconciliation writes rec keyed by project id and reports
	// whether the stored row changed.
	UpsertReconciliation(ctx context.Context, rec model.ReconciliationRecord) (bool, error)
}

// SaveRequest is an analyst's reconciliation input.
type SaveRequest struct {
	Weights       model.Weights
	Narrative     string
	EffectiveDate *time.Time
	// Override replaces the final value. When nil, any stored override is
	// kept unless ClearOverride is set.
	Override      *float64
	ClearOverride bool
	// ExpectedUpdatedAt is the caller's view of the stored row. Saves are
	// last-write-wins; a mismatch is only logged.
	ExpectedUpdatedAt *time.Time
}

// Outcome is a reconciliation record with its computed flags.
type Outcome struct {
	Record model.ReconciliationRecord `json:"record" yaml:"record"`
	Result Result                     `json:"result" yaml:"result"`
	// Saved is false when the record has never been persisted.
	Saved bool `json:"saved" yaml:"saved"`
	// Changed reports whether a save modified the stored row.
	Changed bool `json:"changed" yaml:"changed"`
}

// Service computes and persists reconciliations.
type Service struct {
	repo      Repository
	tolerance float64
}

// NewService creates a Service. A non-positive tolerance means DefaultTolerance.
func NewService(repo Repository, tolerance float64) *Service {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Service{repo: repo, tolerance: tolerance}
}

func (s *Service) ensureProject(ctx context.Context, projectID int64) error {
	if projectID <= 0 {
		return apperr.Validation("invalid project id %d", projectID)
	}
	ok, err := s.repo.ProjectExists(ctx, projectID)
	if err != nil {
		return apperr.Fetch("project", err)
	}
	if !ok {
		return apperr.NotFound("project %d not found", projectID)
	}
	return nil
}

// Get returns the stored reconciliation recomputed against the current
// indications. The refresh is not persisted. A project with no saved
// reconciliation gets an unsaved record with zero weights.
func (s *Service) Get(ctx context.Context, projectID int64) (*Outcome, error) {
	if err := s.ensureProject(ctx, projectID); err != nil {
		return nil, eris.Wrap(err, "reconcile: get")
	}

	ind, err := s.repo.LatestIndications(ctx, projectID)
	if err != nil {
		return nil, eris.Wrap(apperr.Fetch("indications", err), "reconcile: get")
	}
	stored, err := s.repo.GetReconciliation(ctx, projectID)
	if err != nil {
		return nil, eris.Wrap(apperr.Fetch("reconciliation", err), "reconcile: get")
	}

	out := &Outcome{Record: model.ReconciliationRecord{ProjectID: projectID}}
	if stored != nil {
		out.Record = *stored
		out.Saved = true
	}
	out.Record.Indications = ind
	out.Result = Compute(Input{
		Indications: ind,
		Weights:     out.Record.Weights,
		Override:    out.Record.OverrideValue,
	}, s.tolerance)
	Apply(&out.Record, out.Result)
	return out, nil
}

// Save recomputes the reconciliation from the latest indications and
// upserts it. Invalid weight sums are saved with a warning.
func (s *Service) Save(ctx context.Context, projectID int64, req SaveRequest) (*Outcome, error) {
	if err := ValidateWeights(req.Weights); err != nil {
		return nil, err
	}
	if err := s.ensureProject(ctx, projectID); err != nil {
		return nil, eris.Wrap(err, "reconcile: save")
	}
	log := zap.L().With(zap.Int64("project_id", projectID))

	ind, err := s.repo.LatestIndications(ctx, projectID)
	if err != nil {
		return nil, eris.Wrap(apperr.Fetch("indications", err), "reconcile: save")
	}
	stored, err := s.repo.GetReconciliation(ctx, projectID)
	if err != nil {
		return nil, eris.Wrap(apperr.Fetch("reconciliation", err), "reconcile: save")
	}

	if req.ExpectedUpdatedAt != nil {
		switch {
		case stored == nil:
			log.Warn("reconcile: expected an existing record, none stored",
				zap.Time("expected_updated_at", *req.ExpectedUpdatedAt))
		case !stored.UpdatedAt.Equal(*req.ExpectedUpdatedAt):
			log.Warn("reconcile: record changed since it was read; last write wins",
				zap.Time("expected_updated_at", *req.ExpectedUpdatedAt),
				zap.Time("stored_updated_at", stored.UpdatedAt))
		}
	}

	override := req.Override
	if override == nil && !req.ClearOverride && stored != nil {
		override = stored.OverrideValue
	}

	rec := model.ReconciliationRecord{
		ProjectID:     projectID,
		Indications:   ind,
		Weights:       req.Weights,
		Narrative:     req.Narrative,
		EffectiveDate: req.EffectiveDate,
	}
	res := Compute(Input{Indications: ind, Weights: req.Weights, Override: override}, s.tolerance)
	Apply(&rec, res)

	if !res.WeightsValid {
		log.Warn("reconcile: saving with invalid weight sum",
			zap.Float64("weight_sum", res.WeightSum))
	}

	changed, err := s.repo.UpsertReconciliation(ctx, rec)
	if err != nil {
		return nil, eris.Wrap(apperr.Fetch("reconciliation", err), "reconcile: upsert")
	}

	saved, err := s.repo.GetReconciliation(ctx, projectID)
	if err != nil {
		return nil, eris.Wrap(apperr.Fetch("reconciliation", err), "reconcile: reload")
	}
	if saved != nil {
		saved.Indications = ind
		rec = *saved
	}

	log.Info("reconcile: saved",
		zap.Bool("changed", changed),
		zap.Float64("computed_value", res.ComputedValue),
		zap.Float64("final_value", res.FinalValue),
		zap.Int("flags", len(res.Flags)),
	)
	return &Outcome{Record: rec, Result: res, Saved: true, Changed: changed}, nil
}
