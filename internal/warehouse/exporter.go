package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EstimateSummary is one reporting row: the financial state of an estimate
// at export time. Amounts are KRW with no fractional part.
type EstimateSummary struct {
	EstimateID string
	OrgID      string
	ProjectID  string
	Title      string
	Status     string
	Subtotal   decimal.Decimal
	VATAmount  decimal.Decimal
	Total      decimal.Decimal
	UpdatedAt  time.Time
}

// summaryTable is the reporting warehouse target table
const summaryTable = "dbo.estimate_summary"

// upsertSummarySQL merges one summary row keyed by estimate ID
const upsertSummarySQL = `
MERGE ` + summaryTable + ` AS target
USING (SELECT @p1 AS estimate_id) AS source
ON target.estimate_id = source.estimate_id
WHEN MATCHED THEN UPDATE SET
    org_id = @p2, project_id = @p3, title = @p4, status = @p5,
    subtotal = @p6, vat_amount = @p7, total_amount = @p8,
    updated_at = @p9, exported_at = SYSUTCDATETIME()
WHEN NOT MATCHED THEN INSERT
    (estimate_id, org_id, project_id, title, status,
     subtotal, vat_amount, total_amount, updated_at, exported_at)
    VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7, @p8, @p9, SYSUTCDATETIME());`

// ExportSummaries upserts estimate summaries into the reporting table.
// Each row is merged independently; a failed row is counted and skipped so
// one bad record does not abort the whole export.
func (c *Client) ExportSummaries(ctx context.Context, summaries []EstimateSummary) (exported int, failed int, err error) {
	if c == nil || c.db == nil {
		return 0, 0, fmt.Errorf("reporting warehouse client not initialized")
	}
	if len(summaries) == 0 {
		return 0, 0, nil
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.queryTimeout)
		defer cancel()
	}

	start := time.Now()

	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin warehouse transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertSummarySQL)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to prepare summary upsert: %w", err)
	}
	defer stmt.Close()

	for _, s := range summaries {
		_, execErr := stmt.ExecContext(ctx,
			s.EstimateID, s.OrgID, s.ProjectID, s.Title, s.Status,
			s.Subtotal.String(), s.VATAmount.String(), s.Total.String(),
			s.UpdatedAt.UTC())
		if execErr != nil {
			c.logger.Warn("failed to export estimate summary",
				zap.Error(execErr),
				zap.String("estimate_id", s.EstimateID))
			failed++
			continue
		}
		exported++
	}

	if err := tx.Commit(); err != nil {
		return 0, len(summaries), fmt.Errorf("failed to commit warehouse export: %w", err)
	}

	c.logger.Info("estimate summaries exported",
		zap.Int("exported", exported),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(start)))

	return exported, failed, nil
}
