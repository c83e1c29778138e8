package interfaces

import (
	"context"

	"github.com/veloxpay/gateway-integration/camt"
	giModels "github.com/veloxpay/gateway-integration/models"
)

// API is the authenticated gateway surface the operations are written
// against. One implementation instance owns one cached bearer token and must
// not be shared across concurrent job instances.
type API interface {
	// Authenticate acquires a fresh bearer token. Called lazily by the other
	// methods; exposed for tests and manual token warm-up.
	Authenticate(ctx context.Context) error

	// NewStatements lists unread statement documents, optionally filtered by
	// account IBAN. A nil list means the gateway had no data (HTTP 204).
	NewStatements(ctx context.Context, iban string) (*giModels.DocumentList, error)

	// StatementHistory lists statement documents between two yyyy-MM-dd dates.
	StatementHistory(ctx context.Context, iban, from, to string) (*giModels.DocumentList, error)

	// CamtFile downloads one statement document. With markAsRead false the
	// document keeps its unread flag on the gateway.
	CamtFile(ctx context.Context, rID string, markAsRead bool) (*camt.Document, error)

	// AcknowledgeCamtFile clears the document's unread flag and returns the
	// updated document reference.
	AcknowledgeCamtFile(ctx context.Context, rID string) (*giModels.DocumentItem, error)

	// SubmitPainFile uploads a pain XML document and returns the gateway's
	// initial status envelope.
	SubmitPainFile(ctx context.Context, painXML []byte) (*giModels.PainEnvelope, error)

	// PainFileInfo polls the status of a submitted payment process.
	PainFileInfo(ctx context.Context, rID string) (*giModels.PainEnvelope, error)
}

// PainBuilder turns caller-supplied payment data into SEPA payment
// initiation XML. The message identifier is the caller's transaction id.
type PainBuilder interface {
	CreditTransferXML(data *giModels.PaymentData, messageID string) ([]byte, error)
	DirectDebitXML(data *giModels.PaymentData, messageID string) ([]byte, error)
}

// Enqueuer is the job-execution surface this module consumes: enqueue a
// named unit of work, optionally on a named queue, optionally delayed.
// At-least-once execution is assumed.
type Enqueuer interface {
	Enqueue(ctx context.Context, job *giModels.JobRequest) error
}
