package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"foodbridge/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingDonations struct {
	usecase.DonationUsecase
	calls atomic.Int32
	err   error
}

func (d *countingDonations) ExpireOverdue(context.Context) (int, error) {
	d.calls.Add(1)

	return 2, d.err
}

func newTestSweeper(interval time.Duration, donations usecase.DonationUsecase) *expirySweeper {
	return &expirySweeper{
		interval:   interval,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		donationUC: donations,
		stop:       make(chan struct{}),
	}
}

func TestExpirySweeper_SweepsUntilStopped(t *testing.T) {
	donations := &countingDonations{}
	sweeper := newTestSweeper(5*time.Millisecond, donations)

	done := make(chan error, 1)
	go func() { done <- sweeper.Serve(context.Background()) }()

	require.Eventually(t, func() bool { return donations.calls.Load() >= 2 }, time.Second, time.Millisecond)

	close(sweeper.stop)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestExpirySweeper_ErrorsDoNotStopTheLoop(t *testing.T) {
	donations := &countingDonations{err: assert.AnError}
	sweeper := newTestSweeper(5*time.Millisecond, donations)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweeper.Serve(ctx) }()

	require.Eventually(t, func() bool { return donations.calls.Load() >= 3 }, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestExpirySweeper_DisabledReturnsImmediately(t *testing.T) {
	donations := &countingDonations{}
	sweeper := newTestSweeper(0, donations)

	require.NoError(t, sweeper.Serve(context.Background()))
	assert.Zero(t, donations.calls.Load())
}
