package operations

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	giModels "github.com/veloxpay/gateway-integration/models"
)

// Gateway payment status vocabulary. This table has to stay in lockstep
// with the gateway's documented statuses: an unknown string is configuration
// drift and raises instead of guessing an outcome.
const (
	StatusRejected          = "FIN_REJECTED"
	StatusUploadFailed      = "FIN_UPLOAD_FAILED"
	StatusCanceled          = "FIN_CANCELED_FROM_SIGNATURE_FOLDER"
	StatusDenied            = "FIN_DENIED_BY_FIN_INSTITUTE"
	StatusPending           = "FIN_PENDING"
	StatusUploadSucceeded   = "FIN_UPLOAD_SUCCEEDED"
	StatusForwarded         = "FIN_FORWARDED_TO_SIGNATURE_FOLDER"
	StatusUploadUnclear     = "FIN_UPLOAD_UNCLEAR"
	StatusPartiallyAccepted = "FIN_PARTIALLY_ACCEPTED"
	StatusAccepted          = "FIN_ACCEPTED"
	StatusConfirmed         = "FIN_CONFIRMED_BY_FIN_INSTITUTE"
)

// ParsePainStatus maps the gateway's status envelope to the workflow result
// shape. Final means the process has finished, successfully or not; Data is
// the verbatim gateway payload.
func ParsePainStatus(envelope *giModels.PainEnvelope) (*giModels.PaymentResult, error) {
	if envelope == nil {
		return nil, eris.New("no pain status envelope")
	}

	var final, success bool
	status := envelope.PaymentStatusItem.Status
	switch status {
	case StatusRejected, StatusUploadFailed, StatusCanceled, StatusDenied:
		final, success = true, false
	case StatusPending, StatusUploadSucceeded, StatusForwarded:
		final, success = false, true
	case StatusUploadUnclear:
		final, success = false, false
	case StatusPartiallyAccepted, StatusAccepted, StatusConfirmed:
		// The vendor docs list the accepted states as non-final, but no
		// further transition has ever been observed once they are reached.
		// Intentional deviation; do not change without domain confirmation,
		// it moves the point where callers are told a payment is done.
		final, success = true, true
	default:
		return nil, eris.Errorf("unknown payment status %q", status)
	}

	data, err := envelopeToMap(envelope)
	if err != nil {
		return nil, err
	}

	return &giModels.PaymentResult{Final: final, Success: success, Data: data}, nil
}

func envelopeToMap(envelope *giModels.PainEnvelope) (map[string]any, error) {
	raw, err := json.Marshal(envelope)
	if err != nil {
		return nil, eris.Wrap(err, "marshalling pain envelope")
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, eris.Wrap(err, "unmarshalling pain envelope")
	}
	return data, nil
}
