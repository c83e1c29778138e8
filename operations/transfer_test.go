package operations

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	giClient "github.com/veloxpay/gateway-integration/client"
	giModels "github.com/veloxpay/gateway-integration/models"
	"github.com/veloxpay/gateway-integration/pain"
)

type fakeBuilder struct {
	xml []byte
	err error

	creditCalls int
	debitCalls  int
	messageID   string
}

func (f *fakeBuilder) CreditTransferXML(data *giModels.PaymentData, messageID string) ([]byte, error) {
	f.creditCalls++
	f.messageID = messageID
	return f.xml, f.err
}

func (f *fakeBuilder) DirectDebitXML(data *giModels.PaymentData, messageID string) ([]byte, error) {
	f.debitCalls++
	f.messageID = messageID
	return f.xml, f.err
}

func pendingEnvelope(rID string) *giModels.PainEnvelope {
	return &giModels.PainEnvelope{
		RID:               rID,
		Type:              "pain",
		PaymentStatusItem: giModels.PainStatusItem{Status: StatusPending},
	}
}

func TestSubmitCreditTransfer(t *testing.T) {
	api := &fakeAPI{submitEnvelope: pendingEnvelope("rid-1")}
	builder := &fakeBuilder{xml: []byte("<Document/>")}
	op := NewInitializeTransfer(nil, api, builder)

	result, err := op.Submit(context.Background(), giModels.TransferModeCreditTransfer, &giModels.PaymentData{}, "TXN-1")
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	if builder.creditCalls != 1 || builder.messageID != "TXN-1" {
		t.Errorf("builder calls = %d, messageID = %q", builder.creditCalls, builder.messageID)
	}
	if !bytes.Equal(api.submittedXML, builder.xml) {
		t.Errorf("submitted %q", api.submittedXML)
	}
	if result.Final || !result.Success {
		t.Errorf("result = %+v, want non-final success", result)
	}
	if result.RID() != "rid-1" {
		t.Errorf("RID() = %q", result.RID())
	}
}

func TestSubmitDirectDebitUsesDebitBuilder(t *testing.T) {
	api := &fakeAPI{submitEnvelope: pendingEnvelope("rid-2")}
	builder := &fakeBuilder{xml: []byte("<Document/>")}
	op := NewInitializeTransfer(nil, api, builder)

	if _, err := op.Submit(context.Background(), giModels.TransferModeDirectDebit, &giModels.PaymentData{}, "TXN-2"); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if builder.debitCalls != 1 || builder.creditCalls != 0 {
		t.Errorf("builder calls: credit %d, debit %d", builder.creditCalls, builder.debitCalls)
	}
}

func TestSubmitBuilderErrorIsFinalFailure(t *testing.T) {
	api := &fakeAPI{}
	builder := &fakeBuilder{err: &pain.ValidationError{Message: "invalid transaction"}}
	op := NewInitializeTransfer(nil, api, builder)

	result, err := op.Submit(context.Background(), giModels.TransferModeCreditTransfer, &giModels.PaymentData{}, "TXN-3")
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if !result.Final || result.Success {
		t.Errorf("result = %+v, want final failure", result)
	}
	if result.Data[giModels.DataKeyBuilderError] != "invalid transaction" {
		t.Errorf("data = %v", result.Data)
	}
	if api.submittedXML != nil {
		t.Error("invalid payment data still reached the gateway")
	}
}

func TestSubmitGatewayRejectionIsFinalFailure(t *testing.T) {
	api := &fakeAPI{submitErr: &giClient.BadRequestError{Messages: []string{"pain file invalid"}}}
	builder := &fakeBuilder{xml: []byte("<Document/>")}
	op := NewInitializeTransfer(nil, api, builder)

	result, err := op.Submit(context.Background(), giModels.TransferModeCreditTransfer, &giModels.PaymentData{}, "TXN-4")
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if !result.Final || result.Success {
		t.Errorf("result = %+v, want final failure", result)
	}
	if result.Data[giModels.DataKeyErrorClass] != "BadRequest" {
		t.Errorf("error_class = %v", result.Data[giModels.DataKeyErrorClass])
	}
	if result.Data[giModels.DataKeyMessage] == "" {
		t.Error("message missing from failure data")
	}
}

func TestSubmitTransientErrorPropagates(t *testing.T) {
	api := &fakeAPI{submitErr: fmt.Errorf("connection reset")}
	builder := &fakeBuilder{xml: []byte("<Document/>")}
	op := NewInitializeTransfer(nil, api, builder)

	if _, err := op.Submit(context.Background(), giModels.TransferModeCreditTransfer, &giModels.PaymentData{}, "TXN-5"); err == nil {
		t.Error("expected the transient error to propagate")
	}
}

func TestSubmitRejectsUnknownMode(t *testing.T) {
	op := NewInitializeTransfer(nil, &fakeAPI{}, &fakeBuilder{})
	if _, err := op.Submit(context.Background(), "wire", &giModels.PaymentData{}, "TXN-6"); err == nil {
		t.Error("expected an error for an unknown mode")
	}
}

func TestTransferInfoFetch(t *testing.T) {
	envelope := pendingEnvelope("rid-7")
	envelope.PaymentStatusItem.Status = StatusAccepted
	api := &fakeAPI{infoEnvelope: envelope}
	op := NewTransferInfo(nil, api)

	result, err := op.Fetch(context.Background(), "rid-7")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if !result.Final || !result.Success {
		t.Errorf("result = %+v, want final success", result)
	}
	if len(api.infoCalls) != 1 || api.infoCalls[0] != "rid-7" {
		t.Errorf("infoCalls = %v", api.infoCalls)
	}
}

func TestTransferInfoGatewayRejection(t *testing.T) {
	api := &fakeAPI{infoErr: &giClient.NotFoundError{Message: "no such process"}}
	op := NewTransferInfo(nil, api)

	if _, err := op.Fetch(context.Background(), "rid-8"); err == nil {
		t.Error("expected a not-found error to propagate")
	}

	api = &fakeAPI{infoErr: &giClient.BadRequestError{Messages: []string{"bad rId"}}}
	op = NewTransferInfo(nil, api)
	result, err := op.Fetch(context.Background(), "rid-9")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if !result.Final || result.Success {
		t.Errorf("result = %+v, want final failure", result)
	}
}
