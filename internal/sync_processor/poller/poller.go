// Package poller runs the periodic sweeps: transfer retries, closure retries,
// pending order advancement and the reconciliation robot.
package poller

import (
	"context"
	"log/slog"
	"time"

	"github.com/procure-finance-sync/internal/config"
	"github.com/procure-finance-sync/internal/engine"
)

// Poller drives the background sweeps on their configured intervals
type Poller struct {
	transfers engine.TransferEngine
	closures  engine.ClosureEngine
	orders    engine.OrderOrchestrator
	robot     engine.ReconciliationRobot
	logger    *slog.Logger
	cfg       *config.PollerConfig
}

func NewPoller(
	cfg *config.PollerConfig,
	transfers engine.TransferEngine,
	closures engine.ClosureEngine,
	orders engine.OrderOrchestrator,
	robot engine.ReconciliationRobot,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		transfers: transfers,
		closures:  closures,
		orders:    orders,
		robot:     robot,
		logger:    logger,
		cfg:       cfg,
	}
}

// Start runs all sweeps until the context is canceled
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting pollers",
		"transfer_interval", p.cfg.TransferInterval.String(),
		"closure_interval", p.cfg.ClosureInterval.String(),
		"order_interval", p.cfg.OrderInterval.String(),
		"robot_interval", p.cfg.RobotInterval.String(),
		"batch_size", p.cfg.BatchSize,
	)

	transferTicker := time.NewTicker(p.cfg.TransferInterval)
	defer transferTicker.Stop()
	closureTicker := time.NewTicker(p.cfg.ClosureInterval)
	defer closureTicker.Stop()
	orderTicker := time.NewTicker(p.cfg.OrderInterval)
	defer orderTicker.Stop()
	robotTicker := time.NewTicker(p.cfg.RobotInterval)
	defer robotTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Pollers stopping due to context cancellation")
			return
		case <-transferTicker.C:
			p.sweepTransfers(ctx)
		case <-closureTicker.C:
			p.sweepClosures(ctx)
		case <-orderTicker.C:
			p.sweepOrders(ctx)
		case <-robotTicker.C:
			p.runRobot(ctx)
		}
	}
}

func (p *Poller) sweepTransfers(ctx context.Context) {
	report, err := p.transfers.ProcessPending(ctx, p.cfg.BatchSize)
	if err != nil {
		p.logger.Error("Transfer sweep failed", "error", err)
		return
	}
	if report.Examined > 0 {
		p.logger.Info("Transfer sweep finished",
			"examined", report.Examined,
			"executed", report.Executed,
			"succeeded", report.Succeeded,
			"failed", report.Failed,
		)
	}
}

func (p *Poller) sweepClosures(ctx context.Context) {
	report, err := p.closures.RetryFailed(ctx, p.cfg.BatchSize)
	if err != nil {
		p.logger.Error("Closure sweep failed", "error", err)
		return
	}
	if report.Examined > 0 {
		p.logger.Info("Closure sweep finished",
			"examined", report.Examined,
			"executed", report.Executed,
			"succeeded", report.Succeeded,
			"failed", report.Failed,
		)
	}
}

func (p *Poller) sweepOrders(ctx context.Context) {
	report, err := p.orders.ProcessPendingOrders(ctx, p.cfg.BatchSize)
	if err != nil {
		p.logger.Error("Order sweep failed", "error", err)
		return
	}
	if report.Examined > 0 {
		p.logger.Info("Order sweep finished",
			"examined", report.Examined,
			"executed", report.Executed,
			"skipped", report.Skipped,
		)
	}
}

func (p *Poller) runRobot(ctx context.Context) {
	report, err := p.robot.ScanAndBackfill(ctx)
	if err != nil {
		p.logger.Error("Reconciliation scan failed", "error", err)
		return
	}
	p.logger.Info("Reconciliation scan finished",
		"pages_scanned", report.PagesScanned,
		"entities_seen", report.EntitiesSeen,
		"skipped", report.Skipped,
		"orders_discovered", report.OrdersDiscovered,
		"payables_created", report.PayablesCreated,
		"already_synced", report.AlreadySynced,
		"transfers_run", report.TransfersRun,
		"errors", len(report.Errors),
	)
}
