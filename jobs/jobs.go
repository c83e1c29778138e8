package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/rotisserie/eris"

	giClient "github.com/veloxpay/gateway-integration/client"
	giConfig "github.com/veloxpay/gateway-integration/config"
	giInterfaces "github.com/veloxpay/gateway-integration/interfaces"
	giModels "github.com/veloxpay/gateway-integration/models"
	"github.com/veloxpay/gateway-integration/operations"
	"github.com/veloxpay/gateway-integration/pain"
)

const (
	JobFetchStatements    = "fetch_statements"
	JobInitializeTransfer = "initialize_transfer"
	JobMonitorTransfer    = "monitor_transfer"

	// Monitoring steps only poll by rId and may be repeated safely.
	monitorRetryBudget = 5
)

// Runner binds the job names to their operations. Each job run builds a fresh
// gateway client so bearer tokens are never shared between concurrent jobs.
type Runner struct {
	Config   *giConfig.Configuration
	Enqueuer giInterfaces.Enqueuer
	Builder  giInterfaces.PainBuilder

	// NewClient is called once per job run.
	NewClient func() giInterfaces.API

	OnStatements operations.StatementCallback
	OnPayment    operations.PaymentCallback
}

func NewRunner(cfg *giConfig.Configuration, enqueuer giInterfaces.Enqueuer, onStatements operations.StatementCallback, onPayment operations.PaymentCallback) *Runner {
	return &Runner{
		Config:       cfg,
		Enqueuer:     enqueuer,
		Builder:      pain.NewBuilder(),
		NewClient:    func() giInterfaces.API { return giClient.NewClient(cfg) },
		OnStatements: onStatements,
		OnPayment:    onPayment,
	}
}

func (r *Runner) RegisterHandlers(w *Worker) {
	w.Register(JobFetchStatements, r.HandleFetchStatements)
	w.Register(JobInitializeTransfer, r.HandleInitializeTransfer)
	w.Register(JobMonitorTransfer, r.HandleMonitorTransfer)
}

func (r *Runner) HandleFetchStatements(ctx context.Context, job *giModels.JobRequest) error {
	var args giModels.FetchStatementsArgs
	if err := json.Unmarshal(job.Args, &args); err != nil {
		return eris.Wrap(err, "unmarshalling fetch statements args")
	}

	op := operations.NewFetchStatements(r.Config, r.NewClient())
	return op.Fetch(ctx, args.Mode, args.Filters, args.Options, r.OnStatements)
}

// HandleInitializeTransfer submits the payment and reports the initial state.
// The job must be enqueued with Retry 0: re-running a failed submission could
// move money twice.
func (r *Runner) HandleInitializeTransfer(ctx context.Context, job *giModels.JobRequest) error {
	var args giModels.InitializeTransferArgs
	if err := json.Unmarshal(job.Args, &args); err != nil {
		return eris.Wrap(err, "unmarshalling initialize transfer args")
	}

	op := operations.NewInitializeTransfer(r.Config, r.NewClient(), r.Builder)
	result, err := op.Submit(ctx, args.Mode, args.PaymentData, args.TransactionID)
	if err != nil {
		return err
	}

	if err := r.OnPayment(ctx, result, args.TransactionID); err != nil {
		return eris.Wrap(err, "payment callback")
	}

	if result.Final {
		return nil
	}
	return r.scheduleMonitor(ctx, result.RID(), args.TransactionID)
}

func (r *Runner) HandleMonitorTransfer(ctx context.Context, job *giModels.JobRequest) error {
	var args giModels.MonitorTransferArgs
	if err := json.Unmarshal(job.Args, &args); err != nil {
		return eris.Wrap(err, "unmarshalling monitor transfer args")
	}

	op := operations.NewTransferInfo(r.Config, r.NewClient())
	result, err := op.Fetch(ctx, args.RID)
	if err != nil {
		return err
	}

	if err := r.OnPayment(ctx, result, args.TransactionID); err != nil {
		return eris.Wrap(err, "payment callback")
	}

	if result.Final {
		slog.Info("payment process finished",
			"rId", args.RID, "transactionId", args.TransactionID, "success", result.Success)
		return nil
	}
	return r.scheduleMonitor(ctx, args.RID, args.TransactionID)
}

func (r *Runner) scheduleMonitor(ctx context.Context, rID, transactionID string) error {
	if rID == "" {
		return eris.New("non-final payment result without an rId to monitor")
	}

	args, err := json.Marshal(&giModels.MonitorTransferArgs{RID: rID, TransactionID: transactionID})
	if err != nil {
		return eris.Wrap(err, "marshalling monitor transfer args")
	}

	slog.Debug("scheduling transfer monitoring",
		"rId", rID, "transactionId", transactionID, "interval", r.Config.TransferMonitoringInterval)
	return r.Enqueuer.Enqueue(ctx, &giModels.JobRequest{
		Name:  JobMonitorTransfer,
		Delay: int64(r.Config.TransferMonitoringInterval / time.Second),
		Retry: monitorRetryBudget,
		Args:  args,
	})
}
