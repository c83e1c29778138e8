package operations

import (
	"context"
	"log/slog"

	"github.com/rotisserie/eris"

	giClient "github.com/veloxpay/gateway-integration/client"
	giConfig "github.com/veloxpay/gateway-integration/config"
	giInterfaces "github.com/veloxpay/gateway-integration/interfaces"
	giModels "github.com/veloxpay/gateway-integration/models"
)

// PaymentCallback receives each new state of a payment process together with
// the caller's transaction id.
type PaymentCallback func(ctx context.Context, result *giModels.PaymentResult, transactionID string) error

type InitializeTransfer struct {
	Config  *giConfig.Configuration
	Client  giInterfaces.API
	Builder giInterfaces.PainBuilder
}

func NewInitializeTransfer(cfg *giConfig.Configuration, client giInterfaces.API, builder giInterfaces.PainBuilder) *InitializeTransfer {
	return &InitializeTransfer{Config: cfg, Client: client, Builder: builder}
}

// Submit builds the pain document for the given mode and uploads it. Invalid
// payment data and requests the gateway rejects outright produce a final
// failure result instead of an error, so callers can report them to their
// users without a retry. Transient failures come back as errors and leave the
// payment unsubmitted.
func (o *InitializeTransfer) Submit(ctx context.Context, mode string, data *giModels.PaymentData, transactionID string) (*giModels.PaymentResult, error) {
	slog.Info("initializing transfer", "mode", mode, "transactionId", transactionID)

	var (
		painXML []byte
		err     error
	)
	switch mode {
	case giModels.TransferModeCreditTransfer:
		painXML, err = o.Builder.CreditTransferXML(data, transactionID)
	case giModels.TransferModeDirectDebit:
		painXML, err = o.Builder.DirectDebitXML(data, transactionID)
	default:
		return nil, eris.Errorf("unknown transfer mode %q", mode)
	}
	if err != nil {
		slog.Warn("transfer rejected before upload", "mode", mode, "transactionId", transactionID, "reason", err.Error())
		return &giModels.PaymentResult{
			Final:   true,
			Success: false,
			Data:    map[string]any{giModels.DataKeyBuilderError: err.Error()},
		}, nil
	}

	envelope, err := o.Client.SubmitPainFile(ctx, painXML)
	if err != nil {
		if giClient.IsTerminalSubmissionError(err) {
			slog.Warn("transfer rejected by gateway", "mode", mode, "transactionId", transactionID, "reason", err.Error())
			return failureResult(err), nil
		}
		return nil, err
	}

	result, err := ParsePainStatus(envelope)
	if err != nil {
		return nil, err
	}
	slog.Info("transfer initialized", "mode", mode, "transactionId", transactionID, "rId", result.RID())
	return result, nil
}

type TransferInfo struct {
	Config *giConfig.Configuration
	Client giInterfaces.API
}

func NewTransferInfo(cfg *giConfig.Configuration, client giInterfaces.API) *TransferInfo {
	return &TransferInfo{Config: cfg, Client: client}
}

// Fetch returns the current state of a previously submitted payment.
func (o *TransferInfo) Fetch(ctx context.Context, rID string) (*giModels.PaymentResult, error) {
	slog.Debug("fetching transfer state", "rId", rID)

	envelope, err := o.Client.PainFileInfo(ctx, rID)
	if err != nil {
		if giClient.IsTerminalSubmissionError(err) {
			slog.Warn("transfer state fetch rejected", "rId", rID, "reason", err.Error())
			return failureResult(err), nil
		}
		return nil, err
	}
	return ParsePainStatus(envelope)
}

func failureResult(err error) *giModels.PaymentResult {
	return &giModels.PaymentResult{
		Final:   true,
		Success: false,
		Data: map[string]any{
			giModels.DataKeyErrorClass: giClient.ErrorClass(err),
			giModels.DataKeyMessage:    err.Error(),
		},
	}
}
