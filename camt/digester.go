package camt

import (
	"github.com/rotisserie/eris"

	giModels "github.com/veloxpay/gateway-integration/models"
	giUtil "github.com/veloxpay/gateway-integration/utils"
)

// Digest flattens a parsed statement document into normalized transaction
// records, one per transaction per booking entry, in source order.
//
// Credits take name/iban/amount from the transaction-level fields. Debits
// take the amount from the transaction detail amount (entry amount when
// absent) and additionally carry the originally instructed amount, charge
// fees and free-text return information - those are only present on
// returned/reversed debits.
func Digest(doc *Document) ([]*giModels.Transaction, error) {
	var result []*giModels.Transaction

	for _, statement := range doc.Statements {
		for _, entry := range statement.Entries {
			for _, tx := range entry.Transactions() {
				record, err := digestTransaction(entry, tx)
				if err != nil {
					return nil, eris.Wrapf(err, "digesting entry in statement %q", statement.ID)
				}
				result = append(result, record)
			}
		}
	}

	return result, nil
}

func digestTransaction(entry *Entry, tx *TransactionDetails) (*giModels.Transaction, error) {
	executedOn := entry.BookingDate.ISODate()
	if executedOn == "" {
		executedOn = entry.ValueDate.ISODate()
	}

	record := &giModels.Transaction{
		Type:                  giModels.TransactionTypeCredit,
		Currency:              tx.Currency(entry),
		ExecutedOn:            executedOn,
		EndToEndReference:     tx.EndToEndReference(),
		RemittanceInformation: tx.RemittanceInformation(),
		AdditionalInformation: entry.AdditionalInformation,
	}

	if tx.Debit(entry) {
		record.Type = giModels.TransactionTypeDebit
		if err := digestDebit(entry, tx, record); err != nil {
			return nil, err
		}
		return record, nil
	}

	if err := digestCredit(entry, tx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func digestCredit(entry *Entry, tx *TransactionDetails, record *giModels.Transaction) error {
	amount := tx.TransactionAmount()
	if amount == "" {
		amount = entry.Amount.Value
	}
	cents, err := giUtil.AmountToCents(amount)
	if err != nil {
		return eris.Wrap(err, "credit amount")
	}

	record.AmountInCents = cents
	record.Name = tx.DebtorName()
	record.IBAN = tx.DebtorIBAN()
	record.BIC = tx.DebtorAgentBIC()

	return nil
}

func digestDebit(entry *Entry, tx *TransactionDetails, record *giModels.Transaction) error {
	amount := tx.TransactionAmount()
	if amount == "" {
		amount = entry.Amount.Value
	}
	cents, err := giUtil.AmountToCents(amount)
	if err != nil {
		return eris.Wrap(err, "debit amount")
	}
	record.AmountInCents = cents

	// On returns the debtor side is our own account; the counterparty name
	// can end up on either related party depending on the bank.
	record.Name = tx.DebtorName()
	if record.Name == "" {
		record.Name = tx.CreditorName()
	}
	record.IBAN = tx.DebtorIBAN()
	record.BIC = tx.DebtorAgentBIC()
	if record.BIC == "" {
		record.BIC = tx.CreditorAgentBIC()
	}

	if instructed := tx.InstructedAmount(); instructed != "" {
		original, err := giUtil.AmountToCents(instructed)
		if err != nil {
			return eris.Wrap(err, "instructed amount")
		}
		record.OriginalAmountInCents = &original
	}

	for _, charge := range tx.ChargeRecords() {
		if charge.Amount == nil {
			continue
		}
		feeCents, err := giUtil.AmountToCents(charge.Amount.Value)
		if err != nil {
			return eris.Wrap(err, "charge amount")
		}
		record.Fees = append(record.Fees, &giModels.Fee{
			AmountInCents: feeCents,
			FromBIC:       charge.BIC(),
		})
	}

	record.ReasonCode = tx.ReasonCode()
	record.ReturnInformation = tx.ReturnInformation()

	return nil
}
