// Package camt is a narrow adapter around ISO 20022 bank-to-customer
// statement documents (camt.053). It decodes the handful of elements the
// digester needs and exposes them through explicit accessors, so nothing
// outside this package depends on the raw XML layout. Both camt.053.001.02
// and camt.053.001.08 documents are handled.
package camt

import (
	"bytes"
	"encoding/xml"
	"strings"

	"github.com/rotisserie/eris"
)

// Namespace is the schema prefix shared by all supported camt.053 versions.
const Namespace = "urn:iso:std:iso:20022:tech:xsd:camt.053"

// MatchesNamespace reports whether the body looks like a camt.053 document.
func MatchesNamespace(body []byte) bool {
	return bytes.Contains(body, []byte(Namespace))
}

type Document struct {
	XMLName    xml.Name
	Statements []*Statement `xml:"BkToCstmrStmt>Stmt"`
}

// Parse decodes a camt.053 XML document. Only structurally broken documents
// fail; missing optional fields surface as empty values on the accessors.
func Parse(body []byte) (*Document, error) {
	if !MatchesNamespace(body) {
		return nil, eris.New("document is not in a known camt.053 namespace")
	}

	var doc Document
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, eris.Wrap(err, "unmarshalling camt.053 document")
	}
	if doc.XMLName.Local != "Document" {
		return nil, eris.Errorf("unexpected root element %q", doc.XMLName.Local)
	}

	return &doc, nil
}

type Statement struct {
	ID      string   `xml:"Id"`
	Account Account  `xml:"Acct"`
	Entries []*Entry `xml:"Ntry"`
}

type Account struct {
	IBAN string `xml:"Id>IBAN"`
}

// Entry is one booking on the statement. A single entry can bundle several
// transactions (e.g. a collective debit collection).
type Entry struct {
	Amount                Amount         `xml:"Amt"`
	CreditDebitIndicator  string         `xml:"CdtDbtInd"`
	BookingDate           DateChoice     `xml:"BookgDt"`
	ValueDate             DateChoice     `xml:"ValDt"`
	AdditionalInformation string         `xml:"AddtlNtryInf"`
	Details               []EntryDetails `xml:"NtryDtls"`
}

func (e *Entry) Debit() bool {
	return e.CreditDebitIndicator == "DBIT"
}

// Transactions flattens the entry's detail blocks. An entry without any
// TxDtls element still yields one empty detail record, so every booking
// produces at least one transaction.
func (e *Entry) Transactions() []*TransactionDetails {
	var txs []*TransactionDetails
	for _, d := range e.Details {
		txs = append(txs, d.Transactions...)
	}
	if len(txs) == 0 {
		txs = append(txs, &TransactionDetails{})
	}
	return txs
}

type EntryDetails struct {
	Transactions []*TransactionDetails `xml:"TxDtls"`
}

type TransactionDetails struct {
	References           References      `xml:"Refs"`
	Amount               *Amount         `xml:"Amt"`
	AmountDetails        *AmountDetails  `xml:"AmtDtls"`
	CreditDebitIndicator string          `xml:"CdtDbtInd"`
	Charges              []Charges       `xml:"Chrgs"`
	RelatedParties       *RelatedParties `xml:"RltdPties"`
	RelatedAgents        *RelatedAgents  `xml:"RltdAgts"`
	RemittanceInfo       *RemittanceInfo `xml:"RmtInf"`
	ReturnInfo           *ReturnInfo     `xml:"RtrInf"`
}

// Debit falls back to the entry indicator when the transaction itself does
// not repeat it, which is common in collective entries.
func (t *TransactionDetails) Debit(entry *Entry) bool {
	if t.CreditDebitIndicator != "" {
		return t.CreditDebitIndicator == "DBIT"
	}
	return entry.Debit()
}

// Currency prefers the transaction-level amount currency and falls back to
// the entry currency.
func (t *TransactionDetails) Currency(entry *Entry) string {
	if t.Amount != nil && t.Amount.Currency != "" {
		return t.Amount.Currency
	}
	if t.AmountDetails != nil && t.AmountDetails.TransactionAmount != nil &&
		t.AmountDetails.TransactionAmount.Amount.Currency != "" {
		return t.AmountDetails.TransactionAmount.Amount.Currency
	}
	return entry.Amount.Currency
}

func (t *TransactionDetails) EndToEndReference() string {
	return t.References.EndToEndID
}

func (t *TransactionDetails) RemittanceInformation() string {
	if t.RemittanceInfo == nil {
		return ""
	}
	return strings.Join(t.RemittanceInfo.Unstructured, " ")
}

// TransactionAmount returns the AmtDtls/TxAmt amount text, or the
// transaction-level Amt, empty when neither is present.
func (t *TransactionDetails) TransactionAmount() string {
	if t.AmountDetails != nil && t.AmountDetails.TransactionAmount != nil {
		return t.AmountDetails.TransactionAmount.Amount.Value
	}
	if t.Amount != nil {
		return t.Amount.Value
	}
	return ""
}

// InstructedAmount is the originally instructed amount, only present on
// returned/reversed transactions.
func (t *TransactionDetails) InstructedAmount() string {
	if t.AmountDetails == nil || t.AmountDetails.InstructedAmount == nil {
		return ""
	}
	return t.AmountDetails.InstructedAmount.Amount.Value
}

func (t *TransactionDetails) DebtorName() string {
	if t.RelatedParties == nil || t.RelatedParties.Debtor == nil {
		return ""
	}
	return t.RelatedParties.Debtor.DisplayName()
}

func (t *TransactionDetails) CreditorName() string {
	if t.RelatedParties == nil || t.RelatedParties.Creditor == nil {
		return ""
	}
	return t.RelatedParties.Creditor.DisplayName()
}

func (t *TransactionDetails) DebtorIBAN() string {
	if t.RelatedParties == nil || t.RelatedParties.DebtorAccount == nil {
		return ""
	}
	return t.RelatedParties.DebtorAccount.IBAN
}

func (t *TransactionDetails) CreditorIBAN() string {
	if t.RelatedParties == nil || t.RelatedParties.CreditorAccount == nil {
		return ""
	}
	return t.RelatedParties.CreditorAccount.IBAN
}

func (t *TransactionDetails) DebtorAgentBIC() string {
	if t.RelatedAgents == nil || t.RelatedAgents.DebtorAgent == nil {
		return ""
	}
	return t.RelatedAgents.DebtorAgent.AnyBIC()
}

func (t *TransactionDetails) CreditorAgentBIC() string {
	if t.RelatedAgents == nil || t.RelatedAgents.CreditorAgent == nil {
		return ""
	}
	return t.RelatedAgents.CreditorAgent.AnyBIC()
}

// ChargeRecords flattens the version differences of the Chrgs element:
// .001.02 repeats Chrgs with Amt and Pty directly, .001.08 nests Rcrd
// elements with Amt and Agt.
func (t *TransactionDetails) ChargeRecords() []ChargeRecord {
	var records []ChargeRecord
	for _, c := range t.Charges {
		if len(c.Records) > 0 {
			records = append(records, c.Records...)
			continue
		}
		if c.Amount != nil {
			records = append(records, ChargeRecord{Amount: c.Amount, Party: c.Party})
		}
	}
	return records
}

func (t *TransactionDetails) ReasonCode() string {
	if t.ReturnInfo == nil {
		return ""
	}
	return t.ReturnInfo.ReasonCode
}

func (t *TransactionDetails) ReturnInformation() string {
	if t.ReturnInfo == nil {
		return ""
	}
	return strings.Join(t.ReturnInfo.AdditionalInfo, " ")
}

type References struct {
	EndToEndID string `xml:"EndToEndId"`
}

type Amount struct {
	Currency string `xml:"Ccy,attr"`
	Value    string `xml:",chardata"`
}

type AmountDetails struct {
	TransactionAmount *AmountWrapper `xml:"TxAmt"`
	InstructedAmount  *AmountWrapper `xml:"InstdAmt"`
}

type AmountWrapper struct {
	Amount Amount `xml:"Amt"`
}

// DateChoice models the ISO date/datetime choice elements (BookgDt, ValDt).
type DateChoice struct {
	Date     string `xml:"Dt"`
	DateTime string `xml:"DtTm"`
}

// ISODate returns the date part as YYYY-MM-DD, whichever variant was used.
func (d DateChoice) ISODate() string {
	if d.Date != "" {
		return d.Date
	}
	if len(d.DateTime) >= 10 {
		return d.DateTime[:10]
	}
	return ""
}

type Charges struct {
	Amount  *Amount        `xml:"Amt"`
	Party   *Agent         `xml:"Pty"`
	Records []ChargeRecord `xml:"Rcrd"`
}

type ChargeRecord struct {
	Amount *Amount `xml:"Amt"`
	Agent  *Agent  `xml:"Agt"`
	Party  *Agent  `xml:"Pty"`
}

// BIC returns the charging institution's BIC from whichever element carried
// it in this schema version.
func (c ChargeRecord) BIC() string {
	if c.Agent != nil && c.Agent.AnyBIC() != "" {
		return c.Agent.AnyBIC()
	}
	if c.Party != nil {
		return c.Party.AnyBIC()
	}
	return ""
}

type Agent struct {
	BIC   string `xml:"FinInstnId>BIC"`
	BICFI string `xml:"FinInstnId>BICFI"`
}

// AnyBIC covers the BIC (.001.02) vs BICFI (.001.08) element rename.
func (a *Agent) AnyBIC() string {
	if a.BIC != "" {
		return a.BIC
	}
	return a.BICFI
}

type RelatedParties struct {
	Debtor          *PartyChoice  `xml:"Dbtr"`
	DebtorAccount   *PartyAccount `xml:"DbtrAcct"`
	Creditor        *PartyChoice  `xml:"Cdtr"`
	CreditorAccount *PartyAccount `xml:"CdtrAcct"`
}

// PartyChoice absorbs the .001.08 change that wraps party details in a Pty
// element.
type PartyChoice struct {
	Name       string `xml:"Nm"`
	NestedName string `xml:"Pty>Nm"`
}

func (p *PartyChoice) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.NestedName
}

type PartyAccount struct {
	IBAN string `xml:"Id>IBAN"`
}

type RelatedAgents struct {
	DebtorAgent   *Agent `xml:"DbtrAgt"`
	CreditorAgent *Agent `xml:"CdtrAgt"`
}

type RemittanceInfo struct {
	Unstructured []string `xml:"Ustrd"`
}

type ReturnInfo struct {
	ReasonCode     string   `xml:"Rsn>Cd"`
	AdditionalInfo []string `xml:"AddtlInf"`
}
