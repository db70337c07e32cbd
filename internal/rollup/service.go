package rollup

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/underwrite/internal/apperr"
	"github.com/sells-group/underwrite/internal/model"
)

// Snapshot sections, used to name the failing fetch.
const (
	SectionProject     = "project"
	SectionSchedule    = "growth_schedule"
	SectionParcels     = "parcels"
	SectionBudget      = "budget"
	SectionBenchmarks  = "benchmarks"
	SectionAcquisition = "acquisition"
)

// Source is the input query surface. Every method is filtered by project id.
type Source interface {
	// GetProject returns nil, nil when the project does not exist.
	GetProject(ctx context.Context, projectID int64) (*model.Project, error)
	GrowthSchedule(ctx context.Context, scheduleID int64) (model.GrowthRateSchedule, error)
	Parcels(ctx context.Context, projectID int64) ([]model.Parcel, error)
	BudgetItems(ctx context.Context, projectID int64) ([]model.BudgetLineItem, error)
	Benchmarks(ctx context.Context, projectID int64) ([]model.CostBenchmark, error)
	// AcquisitionTotal sums acquisition costs applied to purchase.
	AcquisitionTotal(ctx context.Context, projectID int64) (float64, error)
}

// Snapshot is every record a report is computed from, fetched once.
type Snapshot struct {
	Project          model.Project
	Schedule         model.GrowthRateSchedule
	Parcels          []model.Parcel
	Budget           []model.BudgetLineItem
	Benchmarks       []model.CostBenchmark
	AcquisitionTotal float64
}

// ParseProjectID parses a positive integer project identifier.
func ParseProjectID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid project id %q", raw)
	}
	return id, nil
}

// LoadSnapshot fetches the project header, then the remaining record sets
// concurrently. The first failing section aborts the load and no partial
// snapshot is returned.
func LoadSnapshot(ctx context.Context, src Source, projectID int64) (*Snapshot, error) {
	if projectID <= 0 {
		return nil, apperr.Validation("invalid project id %d", projectID)
	}

	project, err := src.GetProject(ctx, projectID)
	if err != nil {
		return nil, apperr.Fetch(SectionProject, err)
	}
	if project == nil {
		return nil, apperr.NotFound("project %d not found", projectID)
	}

	snap := &Snapshot{Project: *project}
	g, gctx := errgroup.WithContext(ctx)

	fetch := func(section string, fn func(context.Context) error) {
		g.Go(func() error {
			if err := fn(gctx); err != nil {
				return apperr.Fetch(section, err)
			}
			return nil
		})
	}

	if project.GrowthScheduleID != nil {
		sid := *project.GrowthScheduleID
		fetch(SectionSchedule, func(ctx context.Context) (err error) {
			snap.Schedule, err = src.GrowthSchedule(ctx, sid)
			return err
		})
	}
	fetch(SectionParcels, func(ctx context.Context) (err error) {
		snap.Parcels, err = src.Parcels(ctx, projectID)
		return err
	})
	fetch(SectionBudget, func(ctx context.Context) (err error) {
		snap.Budget, err = src.BudgetItems(ctx, projectID)
		return err
	})
	fetch(SectionBenchmarks, func(ctx context.Context) (err error) {
		snap.Benchmarks, err = src.Benchmarks(ctx, projectID)
		return err
	})
	fetch(SectionAcquisition, func(ctx context.Context) (err error) {
		snap.AcquisitionTotal, err = src.AcquisitionTotal(ctx, projectID)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

// Service generates project reports.
type Service struct {
	src     Source
	opts    Options
	timeout time.Duration
	now     func() time.Time
}

// NewService creates a Service. A zero timeout leaves the caller's deadline
// in charge of the fetch.
func NewService(src Source, opts Options, timeout time.Duration) *Service {
	return &Service{src: src, opts: opts, timeout: timeout, now: time.Now}
}

// Generate parses rawProjectID, loads its snapshot and builds the report.
func (s *Service) Generate(ctx context.Context, rawProjectID string) (*model.Report, error) {
	projectID, err := ParseProjectID(rawProjectID)
	if err != nil {
		return nil, err
	}
	return s.GenerateID(ctx, projectID)
}

// GenerateID builds the report for an already parsed project id.
func (s *Service) GenerateID(ctx context.Context, projectID int64) (*model.Report, error) {
	start := s.now()
	log := zap.L().With(zap.Int64("project_id", projectID))

	fetchCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	snap, err := LoadSnapshot(fetchCtx, s.src, projectID)
	if err != nil {
		if section := apperr.SectionOf(err); section != "" {
			log.Error("rollup: snapshot fetch failed", zap.String("section", section), zap.Error(err))
		}
		return nil, eris.Wrap(err, "rollup: load snapshot")
	}

	report := Build(*snap, s.opts)
	report.Metadata.RunID = uuid.NewString()
	report.Metadata.GeneratedAt = start.UTC()
	report.Metadata.Duration = s.now().Sub(start)

	log.Info("rollup: report generated",
		zap.String("run_id", report.Metadata.RunID),
		zap.Int("phase_count", report.Metadata.PhaseCount),
		zap.Int("parcels", len(snap.Parcels)),
		zap.Duration("duration", report.Metadata.Duration),
	)
	return report, nil
}
