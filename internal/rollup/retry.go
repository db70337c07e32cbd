package rollup

import (
	"context"

	"github.com/sells-group/underwrite/internal/model"
	"github.com/sells-group/underwrite/internal/resilience"
)

type retrySource struct {
	src Source
	cfg resilience.RetryConfig
}

// RetrySource wraps src so each read is retried on transient failures.
func RetrySource(src Source, cfg resilience.RetryConfig) Source {
	return &retrySource{src: src, cfg: cfg}
}

func retryRead[T any](ctx context.Context, r *retrySource, section string, fn func(context.Context) (T, error)) (T, error) {
	cfg := r.cfg
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger("rollup." + section)
	}
	return resilience.DoVal(ctx, cfg, fn)
}

func (r *retrySource) GetProject(ctx context.Context, projectID int64) (*model.Project, error) {
	return retryRead(ctx, r, SectionProject, func(ctx context.Context) (*model.Project, error) {
		return r.src.GetProject(ctx, projectID)
	})
}

func (r *retrySource) GrowthSchedule(ctx context.Context, scheduleID int64) (model.GrowthRateSchedule, error) {
	return retryRead(ctx, r, SectionSchedule, func(ctx context.Context) (model.GrowthRateSchedule, error) {
		return r.src.GrowthSchedule(ctx, scheduleID)
	})
}

func (r *retrySource) Parcels(ctx context.Context, projectID int64) ([]model.Parcel, error) {
	return retryRead(ctx, r, SectionParcels, func(ctx context.Context) ([]model.Parcel, error) {
		return r.src.Parcels(ctx, projectID)
	})
}

func (r *retrySource) BudgetItems(ctx context.Context, projectID int64) ([]model.BudgetLineItem, error) {
	return retryRead(ctx, r, SectionBudget, func(ctx context.Context) ([]model.BudgetLineItem, error) {
		return r.src.BudgetItems(ctx, projectID)
	})
}

func (r *retrySource) Benchmarks(ctx context.Context, projectID int64) ([]model.CostBenchmark, error) {
	return retryRead(ctx, r, SectionBenchmarks, func(ctx context.Context) ([]model.CostBenchmark, error) {
		return r.src.Benchmarks(ctx, projectID)
	})
}

func (r *retrySource) AcquisitionTotal(ctx context.Context, projectID int64) (float64, error) {
	return retryRead(ctx, r, SectionAcquisition, func(ctx context.Context) (float64, error) {
		return r.src.AcquisitionTotal(ctx, projectID)
	})
}
