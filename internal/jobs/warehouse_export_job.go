package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/bangsu-tech/estimate-api/internal/domain"
	"github.com/bangsu-tech/estimate-api/internal/warehouse"
	"go.uber.org/zap"
)

// WarehouseExportJobName is the name of the estimate summary export job
const WarehouseExportJobName = "warehouse_export"

// defaultExportTimeout bounds one export run
const defaultExportTimeout = 5 * time.Minute

// EstimateSource lists estimates for the reporting export. Implemented by
// the estimate repository; declared here so the job does not depend on the
// repository package directly.
type EstimateSource interface {
	ListUpdatedSince(ctx context.Context, since time.Time) ([]domain.Estimate, error)
}

// SummaryExporter pushes summary rows to the reporting warehouse
type SummaryExporter interface {
	ExportSummaries(ctx context.Context, summaries []warehouse.EstimateSummary) (exported int, failed int, err error)
}

// WarehouseExportJob pushes financial summaries of recently changed
// estimates to the reporting warehouse. Incremental: each run exports
// estimates updated since the last successful run.
type WarehouseExportJob struct {
	source   EstimateSource
	exporter SummaryExporter
	logger   *zap.Logger
	timeout  time.Duration

	mu        sync.Mutex
	lastRunAt time.Time
}

// NewWarehouseExportJob creates a new export job. The first run exports
// every estimate; later runs export only what changed in between.
func NewWarehouseExportJob(source EstimateSource, exporter SummaryExporter, logger *zap.Logger) *WarehouseExportJob {
	return &WarehouseExportJob{
		source:   source,
		exporter: exporter,
		logger:   logger,
		timeout:  defaultExportTimeout,
	}
}

// Run executes one export pass. Called by the scheduler.
func (j *WarehouseExportJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	j.mu.Lock()
	since := j.lastRunAt
	j.mu.Unlock()

	start := time.Now()

	ests, err := j.source.ListUpdatedSince(ctx, since)
	if err != nil {
		j.logger.Error("warehouse export failed to list estimates", zap.Error(err))
		return
	}
	if len(ests) == 0 {
		return
	}

	summaries := make([]warehouse.EstimateSummary, len(ests))
	for i := range ests {
		summaries[i] = summarize(&ests[i])
	}

	exported, failed, err := j.exporter.ExportSummaries(ctx, summaries)
	if err != nil {
		j.logger.Error("warehouse export failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	// Advance the watermark only after a successful export so failed
	// rows are retried next run.
	if failed == 0 {
		j.mu.Lock()
		j.lastRunAt = start
		j.mu.Unlock()
	}

	j.logger.Info("warehouse export completed",
		zap.Int("exported", exported),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(start)))
}

func summarize(est *domain.Estimate) warehouse.EstimateSummary {
	return warehouse.EstimateSummary{
		EstimateID: est.ID.String(),
		OrgID:      est.OrgID.String(),
		ProjectID:  est.ProjectID.String(),
		Title:      est.Title,
		Status:     string(est.Status),
		Subtotal:   est.Subtotal,
		VATAmount:  est.VATAmount,
		Total:      est.TotalAmount,
		UpdatedAt:  est.UpdatedAt,
	}
}

// RegisterWarehouseExportJob registers the export job with the scheduler.
func RegisterWarehouseExportJob(scheduler *Scheduler, source EstimateSource, exporter SummaryExporter, logger *zap.Logger, cronExpr string) error {
	job := NewWarehouseExportJob(source, exporter, logger)
	return scheduler.AddJob(WarehouseExportJobName, cronExpr, job.Run)
}
