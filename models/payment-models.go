package gateway_integration_models

// Party is the originating side of a payment batch: the debtor for credit
// transfers, the creditor for direct debits. CreditorIdentifier is the SEPA
// creditor scheme id and only required for direct debits.
type Party struct {
	Name               string `json:"name" validate:"required,max=70"`
	IBAN               string `json:"iban" validate:"required,iban"`
	BIC                string `json:"bic" validate:"omitempty,bic"`
	CreditorIdentifier string `json:"creditor_identifier,omitempty"`
}

// PaymentInstruction is one transaction inside a batch. For credit transfers
// it names a creditor to pay, for direct debits a debtor to collect from
// (then MandateID and MandateSignedOn are required).
type PaymentInstruction struct {
	Name                  string `json:"name" validate:"required,max=70"`
	IBAN                  string `json:"iban" validate:"required,iban"`
	BIC                   string `json:"bic" validate:"omitempty,bic"`
	AmountInCents         int64  `json:"amount_in_cents" validate:"required,gt=0"`
	Currency              string `json:"currency" validate:"omitempty,len=3"`
	EndToEndReference     string `json:"end_to_end_reference" validate:"omitempty,max=35"`
	RemittanceInformation string `json:"remittance_information" validate:"omitempty,max=140"`
	ExecuteOn             string `json:"execute_on" validate:"required,datetime=2006-01-02"`
	MandateID             string `json:"mandate_id,omitempty" validate:"omitempty,max=35"`
	MandateSignedOn       string `json:"mandate_signed_on,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// PaymentData is the caller-supplied description of a payment batch.
// Exactly one of Debtor/Creditor and the matching instruction list is used,
// depending on the transfer mode.
type PaymentData struct {
	Debtor    *Party                `json:"debtor,omitempty"`
	Creditor  *Party                `json:"creditor,omitempty"`
	Creditors []*PaymentInstruction `json:"creditors,omitempty"`
	Debtors   []*PaymentInstruction `json:"debtors,omitempty"`
}

const (
	TransferModeCreditTransfer = "credit_transfer"
	TransferModeDirectDebit    = "direct_debit"
)

// PaymentResult is the structured outcome handed to the payment callback on
// every workflow step. Final=false means the process is still being
// monitored; Final=true is terminal regardless of Success. Data holds either
// the verbatim gateway payload or a failure descriptor.
type PaymentResult struct {
	Final   bool           `json:"final"`
	Success bool           `json:"success"`
	Data    map[string]any `json:"data"`
}

// RID digs the gateway-assigned process identifier out of a verbatim
// gateway payload. Empty when the result carries a failure descriptor.
func (r *PaymentResult) RID() string {
	if r == nil || r.Data == nil {
		return ""
	}
	id, _ := r.Data["rId"].(string)
	return id
}

// Failure descriptor keys used in PaymentResult.Data.
const (
	DataKeyErrorClass   = "error_class"
	DataKeyMessage      = "message"
	DataKeyBuilderError = "SEPA builder error"
)
