package pain

import "encoding/xml"

// XML shapes for the two supported payment initiation schemas. Field order
// follows the schema sequence; the gateway validates strictly.

type creditTransferDocument struct {
	XMLName    xml.Name                 `xml:"Document"`
	Namespace  string                   `xml:"xmlns,attr"`
	Initiation creditTransferInitiation `xml:"CstmrCdtTrfInitn"`
}

type creditTransferInitiation struct {
	GroupHeader  groupHeader         `xml:"GrpHdr"`
	PaymentInfos []creditPaymentInfo `xml:"PmtInf"`
}

type directDebitDocument struct {
	XMLName    xml.Name              `xml:"Document"`
	Namespace  string                `xml:"xmlns,attr"`
	Initiation directDebitInitiation `xml:"CstmrDrctDbtInitn"`
}

type directDebitInitiation struct {
	GroupHeader  groupHeader        `xml:"GrpHdr"`
	PaymentInfos []debitPaymentInfo `xml:"PmtInf"`
}

type groupHeader struct {
	MessageID       string    `xml:"MsgId"`
	CreatedAt       string    `xml:"CreDtTm"`
	NumberOfTxs     int       `xml:"NbOfTxs"`
	ControlSum      string    `xml:"CtrlSum"`
	InitiatingParty partyName `xml:"InitgPty"`
}

type creditPaymentInfo struct {
	PaymentInfoID      string              `xml:"PmtInfId"`
	PaymentMethod      string              `xml:"PmtMtd"`
	BatchBooking       bool                `xml:"BtchBookg"`
	NumberOfTxs        int                 `xml:"NbOfTxs"`
	ControlSum         string              `xml:"CtrlSum"`
	PaymentTypeInfo    *paymentTypeInfo    `xml:"PmtTpInf,omitempty"`
	RequestedExecution string              `xml:"ReqdExctnDt"`
	Debtor             partyName           `xml:"Dbtr"`
	DebtorAccount      accountID           `xml:"DbtrAcct"`
	DebtorAgent        agentID             `xml:"DbtrAgt"`
	ChargeBearer       string              `xml:"ChrgBr"`
	Transactions       []creditTransaction `xml:"CdtTrfTxInf"`
}

type creditTransaction struct {
	PaymentID      paymentID       `xml:"PmtId"`
	Amount         amountField     `xml:"Amt"`
	CreditorAgent  *agentID        `xml:"CdtrAgt,omitempty"`
	Creditor       partyName       `xml:"Cdtr"`
	CreditorAcct   accountID       `xml:"CdtrAcct"`
	RemittanceInfo *remittanceInfo `xml:"RmtInf,omitempty"`
}

type debitPaymentInfo struct {
	PaymentInfoID       string             `xml:"PmtInfId"`
	PaymentMethod       string             `xml:"PmtMtd"`
	BatchBooking        bool               `xml:"BtchBookg"`
	NumberOfTxs         int                `xml:"NbOfTxs"`
	ControlSum          string             `xml:"CtrlSum"`
	PaymentTypeInfo     *paymentTypeInfo   `xml:"PmtTpInf,omitempty"`
	RequestedCollection string             `xml:"ReqdColltnDt"`
	Creditor            partyName          `xml:"Cdtr"`
	CreditorAccount     accountID          `xml:"CdtrAcct"`
	CreditorAgent       agentID            `xml:"CdtrAgt"`
	ChargeBearer        string             `xml:"ChrgBr"`
	CreditorSchemeID    schemeID           `xml:"CdtrSchmeId"`
	Transactions        []debitTransaction `xml:"DrctDbtTxInf"`
}

type debitTransaction struct {
	PaymentID      paymentID          `xml:"PmtId"`
	Amount         currencyAmount     `xml:"InstdAmt"`
	MandateInfo    mandateRelatedInfo `xml:"DrctDbtTx>MndtRltdInf"`
	DebtorAgent    agentID            `xml:"DbtrAgt"`
	Debtor         partyName          `xml:"Dbtr"`
	DebtorAccount  accountID          `xml:"DbtrAcct"`
	RemittanceInfo *remittanceInfo    `xml:"RmtInf,omitempty"`
}

type paymentTypeInfo struct {
	ServiceLevel    *codeField `xml:"SvcLvl,omitempty"`
	LocalInstrument *codeField `xml:"LclInstrm,omitempty"`
	SequenceType    string     `xml:"SeqTp,omitempty"`
}

type codeField struct {
	Code string `xml:"Cd"`
}

type partyName struct {
	Name string `xml:"Nm"`
}

type paymentID struct {
	EndToEndID string `xml:"EndToEndId"`
}

type amountField struct {
	InstructedAmount currencyAmount `xml:"InstdAmt"`
}

type currencyAmount struct {
	Currency string `xml:"Ccy,attr"`
	Value    string `xml:",chardata"`
}

type accountID struct {
	IBAN string `xml:"Id>IBAN"`
}

// agentID names the financial institution either by BIC or with the
// NOTPROVIDED marker when the caller has none.
type agentID struct {
	BIC     string `xml:"FinInstnId>BIC,omitempty"`
	OtherID string `xml:"FinInstnId>Othr>Id,omitempty"`
}

func agentField(bic string) agentID {
	if bic == "" {
		return agentID{OtherID: notProvided}
	}
	return agentID{BIC: bic}
}

func optionalAgent(bic string) *agentID {
	if bic == "" {
		return nil
	}
	return &agentID{BIC: bic}
}

type schemeID struct {
	ID         string `xml:"Id>PrvtId>Othr>Id"`
	SchemeName string `xml:"Id>PrvtId>Othr>SchmeNm>Prtry"`
}

func creditorSchemeID(identifier string) schemeID {
	return schemeID{ID: identifier, SchemeName: serviceLevelSEPA}
}

type mandateRelatedInfo struct {
	MandateID       string `xml:"MndtId"`
	DateOfSignature string `xml:"DtOfSgntr"`
}

type remittanceInfo struct {
	Unstructured string `xml:"Ustrd"`
}

func ibanAccount(iban string) accountID {
	return accountID{IBAN: iban}
}
