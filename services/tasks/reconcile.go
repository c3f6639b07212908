package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypePaymentReconcile = "payment:reconcile"
	TypePaymentSweep     = "payment:sweep"

	QueuePayments = "payments"
)

type ReconcilePayload struct {
	PaymentID string `json:"payment_id"`
}

func NewReconcileTask(paymentID string, delay time.Duration) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(ReconcilePayload{PaymentID: paymentID})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypePaymentReconcile, b)
	opts := []asynq.Option{
		asynq.ProcessIn(delay),
		asynq.Queue(QueuePayments),
		asynq.MaxRetry(5),
	}
	return task, opts, nil
}

func NewSweepTask() *asynq.Task {
	return asynq.NewTask(TypePaymentSweep, nil, asynq.Queue(QueuePayments), asynq.MaxRetry(0))
}

func ParseReconcilePayload(task *asynq.Task) (ReconcilePayload, error) {
	var p ReconcilePayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p, err
	}
	if p.PaymentID == "" {
		return p, fmt.Errorf("reconcile task without payment id")
	}
	return p, nil
}

// AsynqEnqueuer schedules payment reconciliation on the task queue.
type AsynqEnqueuer struct {
	client *asynq.Client
	delay  time.Duration
}

func NewAsynqEnqueuer(client *asynq.Client, delay time.Duration) *AsynqEnqueuer {
	return &AsynqEnqueuer{client: client, delay: delay}
}

func (e *AsynqEnqueuer) EnqueueReconcile(ctx context.Context, paymentID string) error {
	task, opts, err := NewReconcileTask(paymentID, e.delay)
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task, opts...)
	return err
}
