// Package scheduler runs periodic lifecycle jobs inside the API process.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"foodbridge/config"
	"foodbridge/internal/delivery"
	deliverycontext "foodbridge/internal/delivery/context"
	"foodbridge/internal/usecase"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

// ExpirySweeperParams holds dependencies for the expiry sweeper, injected by Fx.
type ExpirySweeperParams struct {
	fx.In

	Lc         fx.Lifecycle
	Cfg        *config.Config
	Logger     *slog.Logger
	DonationUC usecase.DonationUsecase
}

// expirySweeper expires overdue pending donations on a fixed interval.
type expirySweeper struct {
	interval   time.Duration
	logger     *slog.Logger
	donationUC usecase.DonationUsecase
	stop       chan struct{}
}

// NewExpirySweeper returns the sweeper delivery. A non-positive interval
// yields a sweeper that idles until shutdown.
func NewExpirySweeper(params ExpirySweeperParams) delivery.Delivery {
	sweeper := &expirySweeper{
		interval:   params.Cfg.Lifecycle.ExpirySweepInterval,
		logger:     params.Logger,
		donationUC: params.DonationUC,
		stop:       make(chan struct{}),
	}

	params.Lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			close(sweeper.stop)

			return nil
		},
	})

	return sweeper
}

func (s *expirySweeper) Serve(ctx context.Context) error {
	if s.interval <= 0 {
		s.logger.Info("Expiry sweeper disabled")

		return nil
	}

	s.logger.Info("Starting expiry sweeper", slog.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stop:
			return nil
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep runs one pass. Failures are logged and retried on the next tick.
func (s *expirySweeper) sweep(ctx context.Context) {
	runID := uuid.New().String()
	logger := s.logger.With(slog.String("request_id", runID))

	ctx = deliverycontext.WithRequestID(ctx, runID)
	ctx = deliverycontext.WithLogger(ctx, logger)

	expired, err := s.donationUC.ExpireOverdue(ctx)
	if err != nil {
		logger.Error("Expiry sweep failed", slog.Any("error", err))

		return
	}

	if expired > 0 {
		logger.Info("Expired overdue donations", slog.Int("count", expired))
	}
}
