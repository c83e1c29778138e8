package gateway_integration_models

// Fee is one charge deducted by an institution on a returned debit.
type Fee struct {
	AmountInCents int64  `json:"amount_in_cents"`
	FromBIC       string `json:"from_bic"`
}

// Transaction is one normalized statement line. The shape is fixed: fields
// with no source value stay at their zero value (or null for pointers) so
// downstream consumers never have to probe for missing keys. Amounts are in
// minor currency units.
type Transaction struct {
	Name                  string `json:"name"`
	IBAN                  string `json:"iban"`
	BIC                   string `json:"bic"`
	Type                  string `json:"type"` // "debit" or "credit"
	AmountInCents         int64  `json:"amount_in_cents"`
	Currency              string `json:"currency"`
	ExecutedOn            string `json:"executed_on"` // YYYY-MM-DD
	EndToEndReference     string `json:"end_to_end_reference"`
	RemittanceInformation string `json:"remittance_information"`
	AdditionalInformation string `json:"additional_information"`
	OriginalAmountInCents *int64 `json:"original_amount_in_cents"`
	Fees                  []*Fee `json:"fees"`
	ReasonCode            string `json:"reason_code"`
	ReturnInformation     string `json:"return_information"`
}

const (
	TransactionTypeDebit  = "debit"
	TransactionTypeCredit = "credit"
)

// StatementFilters narrows which statement documents are listed.
// From/To are only meaningful in history mode, as yyyy-MM-dd.
type StatementFilters struct {
	IBAN string `json:"iban,omitempty"`
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// StatementOptions tweaks fetch behavior. MarkAsRead defaults to true for
// new-statement fetches and is ignored (forced off) for history fetches.
type StatementOptions struct {
	MarkAsRead *bool `json:"mark_as_read,omitempty"`
}

func (o *StatementOptions) MarkAsReadEnabled() bool {
	if o == nil || o.MarkAsRead == nil {
		return true
	}
	return *o.MarkAsRead
}

const (
	FetchModeNew     = "new"
	FetchModeHistory = "history"
)
