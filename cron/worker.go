package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studiobook/config"
	"studiobook/services/payment"
	"studiobook/services/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// PaymentReconciler is the part of the payment orchestrator the worker drives.
type PaymentReconciler interface {
	Reconcile(ctx context.Context, paymentID string) error
	Sweep(ctx context.Context, olderThan time.Duration) (int, error)
}

// Worker runs payment reconciliation tasks and the periodic sweep.
type Worker struct {
	srv       *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	logger    *zap.Logger
}

func QueueRedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// NewPaymentWorker wires the reconcile handlers and registers the sweep schedule.
func NewPaymentWorker(rec PaymentReconciler, logger *zap.Logger) (*Worker, error) {
	redisOpts := QueueRedisOpt()

	srv := asynq.NewServer(redisOpts, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			tasks.QueuePayments: 1,
		},
	})

	scheduler := asynq.NewScheduler(redisOpts, &asynq.SchedulerOpts{Location: time.UTC})
	if _, err := scheduler.Register(config.AppConfig.ReconcileSweepSpec, tasks.NewSweepTask()); err != nil {
		return nil, fmt.Errorf("failed to register payment sweep: %w", err)
	}

	return &Worker{
		srv:       srv,
		scheduler: scheduler,
		mux:       NewMux(rec, config.ReconcileAfter(), logger),
		logger:    logger,
	}, nil
}

// NewMux routes payment tasks to rec. Sweeps pick up payments idle for at least olderThan.
func NewMux(rec PaymentReconciler, olderThan time.Duration, logger *zap.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypePaymentReconcile, handleReconcileTask(rec, logger))
	mux.HandleFunc(tasks.TypePaymentSweep, handleSweepTask(rec, olderThan, logger))
	return mux
}

// Start runs the worker and scheduler in the background, retrying startup with backoff.
func (w *Worker) Start(ctx context.Context) {
	go monitorRedisConnection(ctx, w.logger)

	go func() {
		w.logger.Info("starting payment worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := w.srv.Start(w.mux)
			if err == nil {
				break
			}
			w.logger.Warn("payment worker failed to start", zap.Int("attempt", attempts), zap.Error(err))
			if attempts == maxAttempts {
				w.logger.Fatal("payment worker giving up after max attempts")
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()

	go func() {
		if err := w.scheduler.Run(); err != nil {
			w.logger.Error("payment sweep scheduler stopped", zap.Error(err))
		}
	}()
}

func (w *Worker) Shutdown() {
	w.scheduler.Shutdown()
	w.srv.Shutdown()
}

func handleReconcileTask(rec PaymentReconciler, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParseReconcilePayload(task)
		if err != nil {
			logger.Error("invalid reconcile payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		err = rec.Reconcile(ctx, p.PaymentID)
		if errors.Is(err, payment.ErrPaymentNotFound) {
			logger.Warn("reconcile for unknown payment", zap.String("paymentID", p.PaymentID))
			return nil
		}
		if err != nil {
			logger.Warn("reconcile failed", zap.String("paymentID", p.PaymentID), zap.Error(err))
		}
		return err
	}
}

func handleSweepTask(rec PaymentReconciler, olderThan time.Duration, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		n, err := rec.Sweep(ctx, olderThan)
		if err != nil {
			logger.Error("payment sweep failed", zap.Error(err))
			return err
		}
		logger.Debug("payment sweep done", zap.Int("reconciled", n))
		return nil
	}
}

// monitorRedisConnection pings the queue's redis periodically to surface outages in the logs.
func monitorRedisConnection(ctx context.Context, logger *zap.Logger) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})
	defer client.Close()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Ping(ctx).Err(); err != nil {
				logger.Warn("queue redis connection lost", zap.Error(err))
			}
		}
	}
}
