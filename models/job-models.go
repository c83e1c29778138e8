package gateway_integration_models

import "encoding/json"

// JobRequest is a named unit of work handed to the job queue. Delay is in
// seconds; zero means run as soon as a worker picks it up. Retry is the
// remaining attempt budget after the first run (0 = never re-run).
type JobRequest struct {
	Name  string          `json:"name" validate:"required"`
	Queue string          `json:"queue"`
	Delay int64           `json:"delay,omitempty"`
	Retry int             `json:"retry"`
	Args  json.RawMessage `json:"args"`
}

// FetchStatementsArgs is the payload for the statement fetch job.
type FetchStatementsArgs struct {
	Mode    string            `json:"mode"`
	Filters *StatementFilters `json:"filters,omitempty"`
	Options *StatementOptions `json:"options,omitempty"`
}

// InitializeTransferArgs is the payload for the payment submission job.
type InitializeTransferArgs struct {
	Mode          string       `json:"mode"`
	PaymentData   *PaymentData `json:"payment_data"`
	TransactionID string       `json:"transaction_id"`
}

// MonitorTransferArgs is the payload for a monitoring step. A monitor step
// only polls status by RID, it never re-submits the payment.
type MonitorTransferArgs struct {
	RID           string `json:"r_id"`
	TransactionID string `json:"transaction_id"`
}
