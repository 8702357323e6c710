package pipeline

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"apsiteimport/internal/domain"
	"apsiteimport/internal/input"
)

// execute issues one remote assign call per row. Precondition: the issue
// list is empty, so every serial resolves in the snapshot. Each outcome is
// written to a row-indexed slot, so the bounded worker pool cannot reorder
// the output; a remote failure is recorded in that row's outcome and never
// aborts the rest of the batch. No retries at any layer.
func (s *Service) execute(ctx context.Context, siteID string, t input.Table, snapshot domain.InventorySnapshot) ([]domain.AssignmentOutcome, domain.Counts) {
	outcomes := make([]domain.AssignmentOutcome, len(t.Rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, row := range t.Rows {
		g.Go(func() error {
			outcomes[i] = s.assignRow(gctx, siteID, row, snapshot)
			return nil
		})
	}
	_ = g.Wait() // workers record failures in their slots and return nil

	var counts domain.Counts
	for _, outcome := range outcomes {
		counts.Total++
		if outcome.Status == domain.AssignmentSuccess {
			counts.Success++
		} else {
			counts.Failed++
		}
	}
	return outcomes, counts
}

func (s *Service) assignRow(ctx context.Context, siteID string, row input.Row, snapshot domain.InventorySnapshot) domain.AssignmentOutcome {
	serial := row.Values[ColumnSerial]
	record := snapshot[serial]

	// The inventory-supplied MAC wins over the file-supplied one when both
	// exist; the chosen value is logged so the substitution is observable.
	mac := record.MAC
	if mac == "" {
		mac = row.Values[ColumnMAC]
	}
	mac = CanonicalMAC(mac)

	outcome := domain.AssignmentOutcome{Row: row.Number, Serial: serial, MAC: mac}

	if err := ctx.Err(); err != nil {
		outcome.Status = domain.AssignmentFailed
		outcome.Error = err.Error()
		return outcome
	}

	if err := s.client.Assign(ctx, siteID, mac); err != nil {
		outcome.Status = domain.AssignmentFailed
		outcome.Error = err.Error()
		s.logger.Error("row assignment failed",
			zap.Int("row", row.Number),
			zap.String("serial", serial),
			zap.Error(err))
		return outcome
	}

	outcome.Status = domain.AssignmentSuccess
	s.logger.Info("row assigned",
		zap.Int("row", row.Number),
		zap.String("serial", serial),
		zap.String("mac", mac))
	return outcome
}
