// Package pain builds in-memory SEPA payment initiation documents
// (pain.001 credit transfers, pain.008 direct debits) from caller-supplied
// payment data. Input is validated up front; a document is only produced
// from data the gateway has a chance of accepting.
package pain

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"

	giInterfaces "github.com/veloxpay/gateway-integration/interfaces"
	giModels "github.com/veloxpay/gateway-integration/models"
	giUtil "github.com/veloxpay/gateway-integration/utils"
)

const (
	creditTransferNamespace = "urn:iso:std:iso:20022:tech:xsd:pain.001.003.03"
	directDebitNamespace    = "urn:iso:std:iso:20022:tech:xsd:pain.008.003.02"

	serviceLevelSEPA = "SEPA"
	localInstrument  = "CORE"
	sequenceType     = "RCUR"
	chargeBearer     = "SLEV"
	notProvided      = "NOTPROVIDED"

	defaultCurrency = "EUR"
)

// ValidationError marks payment data that cannot produce a valid document.
// Workflows report it as a builder failure instead of a gateway problem.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type Builder struct {
	validate *validator.Validate
}

var _ giInterfaces.PainBuilder = &Builder{}

func NewBuilder() *Builder {
	return &Builder{validate: giUtil.GetValidator()}
}

// CreditTransferXML builds a pain.001.003.03 document moving money from the
// debtor account to one or many creditors. messageID becomes the batch's
// message identification and must be unique per submission.
func (b *Builder) CreditTransferXML(data *giModels.PaymentData, messageID string) ([]byte, error) {
	if err := b.checkMessageID(messageID); err != nil {
		return nil, err
	}
	if data == nil || data.Debtor == nil {
		return nil, &ValidationError{Message: "credit transfer needs a debtor"}
	}
	if len(data.Creditors) == 0 {
		return nil, &ValidationError{Message: "credit transfer needs at least one creditor"}
	}
	if err := b.checkParty(data.Debtor); err != nil {
		return nil, err
	}
	for _, instruction := range data.Creditors {
		if err := b.checkInstruction(instruction, false); err != nil {
			return nil, err
		}
	}

	doc := creditTransferDocument{
		Namespace: creditTransferNamespace,
		Initiation: creditTransferInitiation{
			GroupHeader: b.groupHeader(messageID, data.Debtor.Name, data.Creditors),
		},
	}

	for i, group := range groupByDate(data.Creditors) {
		info := creditPaymentInfo{
			PaymentInfoID:      paymentInfoID(messageID, i),
			PaymentMethod:      "TRF",
			BatchBooking:       true,
			NumberOfTxs:        len(group.instructions),
			ControlSum:         giUtil.CentsToAmount(sumCents(group.instructions)),
			PaymentTypeInfo:    &paymentTypeInfo{ServiceLevel: &codeField{Code: serviceLevelSEPA}},
			RequestedExecution: group.date,
			Debtor:             partyName{Name: data.Debtor.Name},
			DebtorAccount:      ibanAccount(data.Debtor.IBAN),
			DebtorAgent:        agentField(data.Debtor.BIC),
			ChargeBearer:       chargeBearer,
		}
		for _, instruction := range group.instructions {
			info.Transactions = append(info.Transactions, creditTransaction{
				PaymentID:      paymentID{EndToEndID: endToEnd(instruction)},
				Amount:         amountField{InstructedAmount: instructedAmount(instruction)},
				CreditorAgent:  optionalAgent(instruction.BIC),
				Creditor:       partyName{Name: instruction.Name},
				CreditorAcct:   ibanAccount(instruction.IBAN),
				RemittanceInfo: remittance(instruction),
			})
		}
		doc.Initiation.PaymentInfos = append(doc.Initiation.PaymentInfos, info)
	}

	return marshal(doc)
}

// DirectDebitXML builds a pain.008.003.02 document collecting money from
// debtors that granted a mandate to the creditor.
func (b *Builder) DirectDebitXML(data *giModels.PaymentData, messageID string) ([]byte, error) {
	if err := b.checkMessageID(messageID); err != nil {
		return nil, err
	}
	if data == nil || data.Creditor == nil {
		return nil, &ValidationError{Message: "direct debit needs a creditor"}
	}
	if data.Creditor.CreditorIdentifier == "" {
		return nil, &ValidationError{Message: "direct debit needs the creditor scheme identifier"}
	}
	if len(data.Debtors) == 0 {
		return nil, &ValidationError{Message: "direct debit needs at least one debtor"}
	}
	if err := b.checkParty(data.Creditor); err != nil {
		return nil, err
	}
	for _, instruction := range data.Debtors {
		if err := b.checkInstruction(instruction, true); err != nil {
			return nil, err
		}
	}

	doc := directDebitDocument{
		Namespace: directDebitNamespace,
		Initiation: directDebitInitiation{
			GroupHeader: b.groupHeader(messageID, data.Creditor.Name, data.Debtors),
		},
	}

	for i, group := range groupByDate(data.Debtors) {
		info := debitPaymentInfo{
			PaymentInfoID: paymentInfoID(messageID, i),
			PaymentMethod: "DD",
			BatchBooking:  true,
			NumberOfTxs:   len(group.instructions),
			ControlSum:    giUtil.CentsToAmount(sumCents(group.instructions)),
			PaymentTypeInfo: &paymentTypeInfo{
				ServiceLevel:    &codeField{Code: serviceLevelSEPA},
				LocalInstrument: &codeField{Code: localInstrument},
				SequenceType:    sequenceType,
			},
			RequestedCollection: group.date,
			Creditor:            partyName{Name: data.Creditor.Name},
			CreditorAccount:     ibanAccount(data.Creditor.IBAN),
			CreditorAgent:       agentField(data.Creditor.BIC),
			ChargeBearer:        chargeBearer,
			CreditorSchemeID:    creditorSchemeID(data.Creditor.CreditorIdentifier),
		}
		for _, instruction := range group.instructions {
			info.Transactions = append(info.Transactions, debitTransaction{
				PaymentID: paymentID{EndToEndID: endToEnd(instruction)},
				Amount:    instructedAmount(instruction),
				MandateInfo: mandateRelatedInfo{
					MandateID:       instruction.MandateID,
					DateOfSignature: instruction.MandateSignedOn,
				},
				DebtorAgent:    agentField(instruction.BIC),
				Debtor:         partyName{Name: instruction.Name},
				DebtorAccount:  ibanAccount(instruction.IBAN),
				RemittanceInfo: remittance(instruction),
			})
		}
		doc.Initiation.PaymentInfos = append(doc.Initiation.PaymentInfos, info)
	}

	return marshal(doc)
}

func (b *Builder) checkMessageID(messageID string) error {
	if messageID == "" {
		return &ValidationError{Message: "message identification must not be empty"}
	}
	if len(messageID) > 35 {
		return &ValidationError{Message: "message identification exceeds 35 characters"}
	}
	return nil
}

func (b *Builder) checkParty(party *giModels.Party) error {
	if err := b.validate.Struct(party); err != nil {
		return &ValidationError{Message: eris.Wrap(err, "invalid party").Error()}
	}
	return nil
}

func (b *Builder) checkInstruction(instruction *giModels.PaymentInstruction, mandate bool) error {
	if err := b.validate.Struct(instruction); err != nil {
		return &ValidationError{Message: eris.Wrap(err, "invalid transaction").Error()}
	}
	if mandate && (instruction.MandateID == "" || instruction.MandateSignedOn == "") {
		return &ValidationError{Message: "direct debit transactions need mandate id and signature date"}
	}
	return nil
}

func (b *Builder) groupHeader(messageID, initiator string, instructions []*giModels.PaymentInstruction) groupHeader {
	return groupHeader{
		MessageID:       messageID,
		CreatedAt:       time.Now().Format("2006-01-02T15:04:05"),
		NumberOfTxs:     len(instructions),
		ControlSum:      giUtil.CentsToAmount(sumCents(instructions)),
		InitiatingParty: partyName{Name: initiator},
	}
}

// dateGroup keeps one payment information block per requested date, in
// first-seen order.
type dateGroup struct {
	date         string
	instructions []*giModels.PaymentInstruction
}

func groupByDate(instructions []*giModels.PaymentInstruction) []dateGroup {
	var groups []dateGroup
	index := make(map[string]int)
	for _, instruction := range instructions {
		i, ok := index[instruction.ExecuteOn]
		if !ok {
			i = len(groups)
			index[instruction.ExecuteOn] = i
			groups = append(groups, dateGroup{date: instruction.ExecuteOn})
		}
		groups[i].instructions = append(groups[i].instructions, instruction)
	}
	return groups
}

func sumCents(instructions []*giModels.PaymentInstruction) int64 {
	var sum int64
	for _, instruction := range instructions {
		sum += instruction.AmountInCents
	}
	return sum
}

func paymentInfoID(messageID string, index int) string {
	return fmt.Sprintf("%s/%d", messageID, index+1)
}

func endToEnd(instruction *giModels.PaymentInstruction) string {
	if instruction.EndToEndReference == "" {
		return notProvided
	}
	return instruction.EndToEndReference
}

func instructedAmount(instruction *giModels.PaymentInstruction) currencyAmount {
	currency := instruction.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	return currencyAmount{
		Currency: currency,
		Value:    giUtil.CentsToAmount(instruction.AmountInCents),
	}
}

func remittance(instruction *giModels.PaymentInstruction) *remittanceInfo {
	if instruction.RemittanceInformation == "" {
		return nil
	}
	return &remittanceInfo{Unstructured: instruction.RemittanceInformation}
}

func marshal(doc any) ([]byte, error) {
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "marshalling pain document")
	}
	return append([]byte(xml.Header), out...), nil
}
