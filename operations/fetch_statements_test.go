package operations

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/veloxpay/gateway-integration/camt"
	giModels "github.com/veloxpay/gateway-integration/models"
)

type fakeAPI struct {
	list    *giModels.DocumentList
	listErr error

	camtDocs map[string]*camt.Document
	acks     map[string]*giModels.DocumentItem

	submitEnvelope *giModels.PainEnvelope
	submitErr      error
	infoEnvelope   *giModels.PainEnvelope
	infoErr        error

	listCalls    int
	historyFrom  string
	historyTo    string
	camtCalls    []string
	ackCalls     []string
	submittedXML []byte
	infoCalls    []string
}

func (f *fakeAPI) Authenticate(ctx context.Context) error { return nil }

func (f *fakeAPI) NewStatements(ctx context.Context, iban string) (*giModels.DocumentList, error) {
	f.listCalls++
	return f.list, f.listErr
}

func (f *fakeAPI) StatementHistory(ctx context.Context, iban, from, to string) (*giModels.DocumentList, error) {
	f.listCalls++
	f.historyFrom, f.historyTo = from, to
	return f.list, f.listErr
}

func (f *fakeAPI) CamtFile(ctx context.Context, rID string, markAsRead bool) (*camt.Document, error) {
	if markAsRead {
		return nil, fmt.Errorf("unexpected markAsRead download of %s", rID)
	}
	f.camtCalls = append(f.camtCalls, rID)
	doc, ok := f.camtDocs[rID]
	if !ok {
		return nil, fmt.Errorf("no camt fixture for %s", rID)
	}
	return doc, nil
}

func (f *fakeAPI) AcknowledgeCamtFile(ctx context.Context, rID string) (*giModels.DocumentItem, error) {
	f.ackCalls = append(f.ackCalls, rID)
	if item, ok := f.acks[rID]; ok {
		return item, nil
	}
	return &giModels.DocumentItem{RID: rID, IsNew: false}, nil
}

func (f *fakeAPI) SubmitPainFile(ctx context.Context, painXML []byte) (*giModels.PainEnvelope, error) {
	f.submittedXML = painXML
	return f.submitEnvelope, f.submitErr
}

func (f *fakeAPI) PainFileInfo(ctx context.Context, rID string) (*giModels.PainEnvelope, error) {
	f.infoCalls = append(f.infoCalls, rID)
	return f.infoEnvelope, f.infoErr
}

func statementDoc(t *testing.T, e2e string) *camt.Document {
	t.Helper()
	body := fmt.Sprintf(`<Document xmlns="urn:iso:std:iso:20022:tech:xsd:camt.053.001.02">
<BkToCstmrStmt><Stmt><Id>S</Id>
<Ntry><Amt Ccy="EUR">1.00</Amt><CdtDbtInd>CRDT</CdtDbtInd><BookgDt><Dt>2022-01-05</Dt></BookgDt>
<NtryDtls><TxDtls><Refs><EndToEndId>%s</EndToEndId></Refs></TxDtls></NtryDtls></Ntry>
</Stmt></BkToCstmrStmt></Document>`, e2e)

	doc, err := camt.Parse([]byte(body))
	if err != nil {
		t.Fatalf("parsing statement fixture: %v", err)
	}
	return doc
}

// Two unread documents, listed newest first by the gateway.
func newStatementsFake(t *testing.T) *fakeAPI {
	t.Helper()
	return &fakeAPI{
		list: &giModels.DocumentList{DocumentItems: []*giModels.DocumentItem{
			{RID: "doc-late", Timestamp: "2022-01-21T09:00:00+01:00", IsNew: true},
			{RID: "doc-early", Timestamp: "2022-01-05T09:00:00+01:00", IsNew: true},
		}},
		camtDocs: map[string]*camt.Document{
			"doc-late":  statementDoc(t, "E2E-LATE"),
			"doc-early": statementDoc(t, "E2E-EARLY"),
		},
	}
}

func TestFetchNewStatementsInChronologicalOrder(t *testing.T) {
	api := newStatementsFake(t)
	op := NewFetchStatements(nil, api)

	var delivered []*giModels.Transaction
	err := op.Fetch(context.Background(), giModels.FetchModeNew, nil, nil,
		func(ctx context.Context, transactions []*giModels.Transaction) error {
			delivered = transactions
			return nil
		})
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}

	if len(delivered) != 2 {
		t.Fatalf("delivered %d transactions, want 2", len(delivered))
	}
	if delivered[0].EndToEndReference != "E2E-EARLY" || delivered[1].EndToEndReference != "E2E-LATE" {
		t.Errorf("transactions out of order: %s, %s",
			delivered[0].EndToEndReference, delivered[1].EndToEndReference)
	}

	// Documents are acknowledged after delivery, oldest first.
	if len(api.ackCalls) != 2 || api.ackCalls[0] != "doc-early" || api.ackCalls[1] != "doc-late" {
		t.Errorf("ackCalls = %v", api.ackCalls)
	}
}

func TestFetchNewStatementsWithoutDocuments(t *testing.T) {
	api := &fakeAPI{} // NewStatements answers nil, the gateway's 204
	op := NewFetchStatements(nil, api)

	var callbackRan bool
	err := op.Fetch(context.Background(), giModels.FetchModeNew, nil, nil,
		func(ctx context.Context, transactions []*giModels.Transaction) error {
			callbackRan = true
			if len(transactions) != 0 {
				t.Errorf("expected empty transaction list, got %d", len(transactions))
			}
			return nil
		})
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if !callbackRan {
		t.Error("callback was not invoked for an empty fetch")
	}
	if len(api.ackCalls) != 0 {
		t.Errorf("ackCalls = %v, want none", api.ackCalls)
	}
}

func TestFetchCallbackErrorPreventsAcknowledge(t *testing.T) {
	api := newStatementsFake(t)
	op := NewFetchStatements(nil, api)

	err := op.Fetch(context.Background(), giModels.FetchModeNew, nil, nil,
		func(ctx context.Context, transactions []*giModels.Transaction) error {
			return fmt.Errorf("downstream unavailable")
		})
	if err == nil {
		t.Fatal("expected the callback error to propagate")
	}
	if len(api.ackCalls) != 0 {
		t.Errorf("documents were acknowledged despite callback failure: %v", api.ackCalls)
	}
}

func TestFetchMarkAsReadDisabled(t *testing.T) {
	api := newStatementsFake(t)
	op := NewFetchStatements(nil, api)

	off := false
	err := op.Fetch(context.Background(), giModels.FetchModeNew, nil,
		&giModels.StatementOptions{MarkAsRead: &off},
		func(ctx context.Context, transactions []*giModels.Transaction) error { return nil })
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(api.ackCalls) != 0 {
		t.Errorf("ackCalls = %v, want none with mark_as_read off", api.ackCalls)
	}
}

func TestFetchDetectsFailedAcknowledge(t *testing.T) {
	api := newStatementsFake(t)
	api.acks = map[string]*giModels.DocumentItem{
		"doc-early": {RID: "doc-early", IsNew: true},
	}
	op := NewFetchStatements(nil, api)

	err := op.Fetch(context.Background(), giModels.FetchModeNew, nil, nil,
		func(ctx context.Context, transactions []*giModels.Transaction) error { return nil })
	if err == nil {
		t.Fatal("expected an error for a document still marked new")
	}
	if !strings.Contains(err.Error(), "still shown as new") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFetchHistoryNeverAcknowledges(t *testing.T) {
	api := newStatementsFake(t)
	op := NewFetchStatements(nil, api)

	err := op.Fetch(context.Background(), giModels.FetchModeHistory,
		&giModels.StatementFilters{From: "2022-01-01", To: "2022-01-31"}, nil,
		func(ctx context.Context, transactions []*giModels.Transaction) error { return nil })
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if api.historyFrom != "2022-01-01" || api.historyTo != "2022-01-31" {
		t.Errorf("history range = %s..%s", api.historyFrom, api.historyTo)
	}
	if len(api.ackCalls) != 0 {
		t.Errorf("history fetch acknowledged documents: %v", api.ackCalls)
	}
}

func TestFetchHistoryValidatesRange(t *testing.T) {
	api := newStatementsFake(t)
	op := NewFetchStatements(nil, api)
	deliver := func(ctx context.Context, transactions []*giModels.Transaction) error { return nil }

	cases := []*giModels.StatementFilters{
		nil,
		{From: "2022-01-31"},
		{From: "2022-01-31", To: "2022-01-01"},
		{From: "31.01.2022", To: "2022-02-01"},
	}
	for _, filters := range cases {
		if err := op.Fetch(context.Background(), giModels.FetchModeHistory, filters, nil, deliver); err == nil {
			t.Errorf("expected validation error for filters %+v", filters)
		}
	}
	if api.listCalls != 0 {
		t.Errorf("invalid ranges still hit the gateway %d times", api.listCalls)
	}
}

func TestFetchRejectsUnknownMode(t *testing.T) {
	op := NewFetchStatements(nil, &fakeAPI{})
	err := op.Fetch(context.Background(), "sometime", nil, nil,
		func(ctx context.Context, transactions []*giModels.Transaction) error { return nil })
	if err == nil {
		t.Error("expected an error for an unknown mode")
	}
}
