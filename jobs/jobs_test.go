package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/veloxpay/gateway-integration/camt"
	giConfig "github.com/veloxpay/gateway-integration/config"
	giInterfaces "github.com/veloxpay/gateway-integration/interfaces"
	giModels "github.com/veloxpay/gateway-integration/models"
)

type fakeEnqueuer struct {
	jobs []*giModels.JobRequest
}

func (f *fakeEnqueuer) Enqueue(ctx context.Context, job *giModels.JobRequest) error {
	f.jobs = append(f.jobs, job)
	return nil
}

type fakeGateway struct {
	submitEnvelope *giModels.PainEnvelope
	infoEnvelope   *giModels.PainEnvelope
	list           *giModels.DocumentList

	infoCalls []string
}

func (f *fakeGateway) Authenticate(ctx context.Context) error { return nil }

func (f *fakeGateway) NewStatements(ctx context.Context, iban string) (*giModels.DocumentList, error) {
	return f.list, nil
}

func (f *fakeGateway) StatementHistory(ctx context.Context, iban, from, to string) (*giModels.DocumentList, error) {
	return f.list, nil
}

func (f *fakeGateway) CamtFile(ctx context.Context, rID string, markAsRead bool) (*camt.Document, error) {
	return nil, fmt.Errorf("no camt fixture for %s", rID)
}

func (f *fakeGateway) AcknowledgeCamtFile(ctx context.Context, rID string) (*giModels.DocumentItem, error) {
	return &giModels.DocumentItem{RID: rID}, nil
}

func (f *fakeGateway) SubmitPainFile(ctx context.Context, painXML []byte) (*giModels.PainEnvelope, error) {
	return f.submitEnvelope, nil
}

func (f *fakeGateway) PainFileInfo(ctx context.Context, rID string) (*giModels.PainEnvelope, error) {
	f.infoCalls = append(f.infoCalls, rID)
	return f.infoEnvelope, nil
}

type fakePainBuilder struct{}

func (f *fakePainBuilder) CreditTransferXML(data *giModels.PaymentData, messageID string) ([]byte, error) {
	return []byte("<Document/>"), nil
}

func (f *fakePainBuilder) DirectDebitXML(data *giModels.PaymentData, messageID string) ([]byte, error) {
	return []byte("<Document/>"), nil
}

func envelope(rID, status string) *giModels.PainEnvelope {
	return &giModels.PainEnvelope{
		RID:               rID,
		PaymentStatusItem: giModels.PainStatusItem{Status: status},
	}
}

func testRunner(gateway *fakeGateway, enqueuer *fakeEnqueuer, onPayment func(ctx context.Context, result *giModels.PaymentResult, transactionID string) error) *Runner {
	cfg := &giConfig.Configuration{}
	cfg.TransferMonitoringInterval = 2 * time.Minute

	return &Runner{
		Config:    cfg,
		Enqueuer:  enqueuer,
		Builder:   &fakePainBuilder{},
		NewClient: func() giInterfaces.API { return gateway },
		OnStatements: func(ctx context.Context, transactions []*giModels.Transaction) error {
			return nil
		},
		OnPayment: onPayment,
	}
}

func transferJob(t *testing.T) *giModels.JobRequest {
	t.Helper()
	args, err := json.Marshal(&giModels.InitializeTransferArgs{
		Mode:          giModels.TransferModeCreditTransfer,
		PaymentData:   &giModels.PaymentData{},
		TransactionID: "TXN-1",
	})
	if err != nil {
		t.Fatal(err)
	}
	return &giModels.JobRequest{Name: JobInitializeTransfer, Args: args}
}

func TestHandleInitializeTransferSchedulesMonitoring(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	gateway := &fakeGateway{submitEnvelope: envelope("rid-1", "FIN_PENDING")}

	var reported *giModels.PaymentResult
	runner := testRunner(gateway, enqueuer, func(ctx context.Context, result *giModels.PaymentResult, transactionID string) error {
		reported = result
		if transactionID != "TXN-1" {
			t.Errorf("transactionID = %q", transactionID)
		}
		return nil
	})

	if err := runner.HandleInitializeTransfer(context.Background(), transferJob(t)); err != nil {
		t.Fatalf("HandleInitializeTransfer returned error: %v", err)
	}

	if reported == nil || reported.Final {
		t.Fatalf("reported = %+v, want a non-final result", reported)
	}
	if len(enqueuer.jobs) != 1 {
		t.Fatalf("enqueued %d jobs, want the monitor step", len(enqueuer.jobs))
	}

	job := enqueuer.jobs[0]
	if job.Name != JobMonitorTransfer {
		t.Errorf("job name = %q", job.Name)
	}
	if job.Delay != 120 {
		t.Errorf("job delay = %d, want the monitoring interval in seconds", job.Delay)
	}

	var args giModels.MonitorTransferArgs
	if err := json.Unmarshal(job.Args, &args); err != nil {
		t.Fatalf("unmarshalling monitor args: %v", err)
	}
	if args.RID != "rid-1" || args.TransactionID != "TXN-1" {
		t.Errorf("args = %+v", args)
	}
}

func TestHandleInitializeTransferFinalResultStops(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	gateway := &fakeGateway{submitEnvelope: envelope("rid-1", "FIN_ACCEPTED")}
	runner := testRunner(gateway, enqueuer, func(ctx context.Context, result *giModels.PaymentResult, transactionID string) error {
		return nil
	})

	if err := runner.HandleInitializeTransfer(context.Background(), transferJob(t)); err != nil {
		t.Fatalf("HandleInitializeTransfer returned error: %v", err)
	}
	if len(enqueuer.jobs) != 0 {
		t.Errorf("final result still scheduled %d jobs", len(enqueuer.jobs))
	}
}

func TestHandleInitializeTransferCallbackErrorPropagates(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	gateway := &fakeGateway{submitEnvelope: envelope("rid-1", "FIN_PENDING")}
	runner := testRunner(gateway, enqueuer, func(ctx context.Context, result *giModels.PaymentResult, transactionID string) error {
		return fmt.Errorf("downstream unavailable")
	})

	if err := runner.HandleInitializeTransfer(context.Background(), transferJob(t)); err == nil {
		t.Error("expected the callback error to propagate")
	}
	if len(enqueuer.jobs) != 0 {
		t.Errorf("monitoring scheduled despite a failing callback: %d jobs", len(enqueuer.jobs))
	}
}

func TestHandleMonitorTransfer(t *testing.T) {
	monitorArgs, err := json.Marshal(&giModels.MonitorTransferArgs{RID: "rid-1", TransactionID: "TXN-1"})
	if err != nil {
		t.Fatal(err)
	}
	job := &giModels.JobRequest{Name: JobMonitorTransfer, Args: monitorArgs}

	// Still pending: report and reschedule.
	enqueuer := &fakeEnqueuer{}
	gateway := &fakeGateway{infoEnvelope: envelope("rid-1", "FIN_PENDING")}
	runner := testRunner(gateway, enqueuer, func(ctx context.Context, result *giModels.PaymentResult, transactionID string) error {
		return nil
	})
	if err := runner.HandleMonitorTransfer(context.Background(), job); err != nil {
		t.Fatalf("HandleMonitorTransfer returned error: %v", err)
	}
	if len(enqueuer.jobs) != 1 || enqueuer.jobs[0].Name != JobMonitorTransfer {
		t.Errorf("jobs = %+v, want one rescheduled monitor step", enqueuer.jobs)
	}

	// Final: report and stop.
	enqueuer = &fakeEnqueuer{}
	gateway = &fakeGateway{infoEnvelope: envelope("rid-1", "FIN_CONFIRMED_BY_FIN_INSTITUTE")}
	var reported *giModels.PaymentResult
	runner = testRunner(gateway, enqueuer, func(ctx context.Context, result *giModels.PaymentResult, transactionID string) error {
		reported = result
		return nil
	})
	if err := runner.HandleMonitorTransfer(context.Background(), job); err != nil {
		t.Fatalf("HandleMonitorTransfer returned error: %v", err)
	}
	if reported == nil || !reported.Final || !reported.Success {
		t.Errorf("reported = %+v, want final success", reported)
	}
	if len(enqueuer.jobs) != 0 {
		t.Errorf("final state still rescheduled %d jobs", len(enqueuer.jobs))
	}
}

func TestHandleFetchStatements(t *testing.T) {
	args, err := json.Marshal(&giModels.FetchStatementsArgs{Mode: giModels.FetchModeNew})
	if err != nil {
		t.Fatal(err)
	}
	job := &giModels.JobRequest{Name: JobFetchStatements, Args: args}

	var delivered []*giModels.Transaction
	deliveredSet := false
	runner := testRunner(&fakeGateway{}, &fakeEnqueuer{}, nil)
	runner.OnStatements = func(ctx context.Context, transactions []*giModels.Transaction) error {
		delivered = transactions
		deliveredSet = true
		return nil
	}

	if err := runner.HandleFetchStatements(context.Background(), job); err != nil {
		t.Fatalf("HandleFetchStatements returned error: %v", err)
	}
	if !deliveredSet || len(delivered) != 0 {
		t.Errorf("delivered = %v, set = %v", delivered, deliveredSet)
	}
}

func TestHandlersRejectBrokenArgs(t *testing.T) {
	runner := testRunner(&fakeGateway{}, &fakeEnqueuer{}, nil)
	job := &giModels.JobRequest{Name: JobInitializeTransfer, Args: []byte("{broken")}

	if err := runner.HandleInitializeTransfer(context.Background(), job); err == nil {
		t.Error("expected an unmarshalling error")
	}
	if err := runner.HandleMonitorTransfer(context.Background(), job); err == nil {
		t.Error("expected an unmarshalling error")
	}
	if err := runner.HandleFetchStatements(context.Background(), job); err == nil {
		t.Error("expected an unmarshalling error")
	}
}
