package gateway_integration

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	giConfig "github.com/veloxpay/gateway-integration/config"
	giInterfaces "github.com/veloxpay/gateway-integration/interfaces"
	"github.com/veloxpay/gateway-integration/jobs"
	giModels "github.com/veloxpay/gateway-integration/models"
)

// Statement fetch jobs are read-only against the gateway until the
// acknowledge step, so a modest retry budget is safe.
const fetchRetryBudget = 3

// Integration is the application-facing entry point. Each method validates
// its arguments eagerly and enqueues a background job; results arrive through
// the callbacks configured on the jobs.Runner.
type Integration struct {
	cfg      *giConfig.Configuration
	enqueuer giInterfaces.Enqueuer
}

func NewIntegration(cfg *giConfig.Configuration, enqueuer giInterfaces.Enqueuer) *Integration {
	return &Integration{cfg: cfg, enqueuer: enqueuer}
}

// NewStatements schedules a fetch of all unread statement documents. Unless
// options disable it, each document is marked as read after the statement
// callback has accepted the data.
func (i *Integration) NewStatements(ctx context.Context, filters *giModels.StatementFilters, options *giModels.StatementOptions) error {
	return i.enqueueFetch(ctx, giModels.FetchModeNew, filters, options)
}

// StatementHistory schedules a fetch of the statement documents between
// filters.From and filters.To. History fetches never mark documents as read.
func (i *Integration) StatementHistory(ctx context.Context, filters *giModels.StatementFilters) error {
	if filters == nil || filters.From == "" || filters.To == "" {
		return eris.New("statement history needs both from and to dates")
	}
	return i.enqueueFetch(ctx, giModels.FetchModeHistory, filters, nil)
}

func (i *Integration) enqueueFetch(ctx context.Context, mode string, filters *giModels.StatementFilters, options *giModels.StatementOptions) error {
	args, err := json.Marshal(&giModels.FetchStatementsArgs{Mode: mode, Filters: filters, Options: options})
	if err != nil {
		return eris.Wrap(err, "marshalling fetch statements args")
	}
	return i.enqueuer.Enqueue(ctx, &giModels.JobRequest{
		Name:  jobs.JobFetchStatements,
		Retry: fetchRetryBudget,
		Args:  args,
	})
}

// InitializeCreditTransfer schedules a credit transfer of the given payment
// data. The transaction id doubles as the SEPA message id and must be unique
// per submission.
func (i *Integration) InitializeCreditTransfer(ctx context.Context, data *giModels.PaymentData, transactionID string) error {
	return i.enqueueTransfer(ctx, giModels.TransferModeCreditTransfer, data, transactionID)
}

// InitializeDirectDebit schedules a direct debit collecting from the given
// debtors.
func (i *Integration) InitializeDirectDebit(ctx context.Context, data *giModels.PaymentData, transactionID string) error {
	return i.enqueueTransfer(ctx, giModels.TransferModeDirectDebit, data, transactionID)
}

func (i *Integration) enqueueTransfer(ctx context.Context, mode string, data *giModels.PaymentData, transactionID string) error {
	if data == nil {
		return eris.New("no payment data given")
	}
	if transactionID == "" {
		return eris.New("no transaction id given")
	}

	args, err := json.Marshal(&giModels.InitializeTransferArgs{
		Mode:          mode,
		PaymentData:   data,
		TransactionID: transactionID,
	})
	if err != nil {
		return eris.Wrap(err, "marshalling initialize transfer args")
	}

	// Retry stays at 0: re-running a submission that failed midway could
	// move the same money twice. Monitoring steps retry instead.
	return i.enqueuer.Enqueue(ctx, &giModels.JobRequest{
		Name:  jobs.JobInitializeTransfer,
		Retry: 0,
		Args:  args,
	})
}
