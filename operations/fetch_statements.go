package operations

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/rotisserie/eris"

	"github.com/veloxpay/gateway-integration/camt"
	giConfig "github.com/veloxpay/gateway-integration/config"
	giInterfaces "github.com/veloxpay/gateway-integration/interfaces"
	giModels "github.com/veloxpay/gateway-integration/models"
	giUtil "github.com/veloxpay/gateway-integration/utils"
)

// StatementCallback receives the digested transactions of one fetch run.
// Returning an error aborts the run before any document is acknowledged.
type StatementCallback func(ctx context.Context, transactions []*giModels.Transaction) error

type FetchStatements struct {
	Config *giConfig.Configuration
	Client giInterfaces.API
}

func NewFetchStatements(cfg *giConfig.Configuration, client giInterfaces.API) *FetchStatements {
	return &FetchStatements{Config: cfg, Client: client}
}

// Fetch lists the statement documents for the given mode, downloads and
// digests each camt file in chronological order, hands the combined result to
// deliver, and only then acknowledges the documents when running in "new"
// mode with mark-as-read enabled. A failing callback therefore leaves every
// document unread so the run can be repeated.
func (o *FetchStatements) Fetch(ctx context.Context, mode string, filters *giModels.StatementFilters, options *giModels.StatementOptions, deliver StatementCallback) error {
	if deliver == nil {
		return eris.New("statement callback must not be nil")
	}
	if filters == nil {
		filters = &giModels.StatementFilters{}
	}

	var (
		list       *giModels.DocumentList
		err        error
		markAsRead bool
	)
	switch mode {
	case giModels.FetchModeNew:
		markAsRead = options.MarkAsReadEnabled()
		list, err = o.Client.NewStatements(ctx, filters.IBAN)
	case giModels.FetchModeHistory:
		if err := validateHistoryRange(filters); err != nil {
			return err
		}
		list, err = o.Client.StatementHistory(ctx, filters.IBAN, filters.From, filters.To)
	default:
		return eris.Errorf("unknown statement fetch mode %q", mode)
	}
	if err != nil {
		return err
	}

	docs := documentItems(list)
	slog.Info("statement documents listed", "mode", mode, "count", len(docs))

	// The gateway lists newest first. Bounces reference earlier bookings, so
	// callers need the documents replayed in chronological order.
	sortByTimestamp(docs)

	transactions := []*giModels.Transaction{}
	for _, doc := range docs {
		if doc.RID == "" {
			return eris.New("statement document without rId")
		}
		slog.Debug("fetching statement document", "rId", doc.RID)
		camtDoc, err := o.Client.CamtFile(ctx, doc.RID, false)
		if err != nil {
			return err
		}
		records, err := camt.Digest(camtDoc)
		if err != nil {
			return eris.Wrapf(err, "digesting camt document %s", doc.RID)
		}
		transactions = append(transactions, records...)
	}

	if err := deliver(ctx, transactions); err != nil {
		return eris.Wrap(err, "delivering statements")
	}

	if mode != giModels.FetchModeNew || !markAsRead {
		return nil
	}
	for _, doc := range docs {
		if !doc.IsNew {
			continue
		}
		item, err := o.Client.AcknowledgeCamtFile(ctx, doc.RID)
		if err != nil {
			return err
		}
		if item.IsNew {
			return eris.Errorf("tried to acknowledge %s but was still shown as new after", doc.RID)
		}
	}
	return nil
}

func validateHistoryRange(filters *giModels.StatementFilters) error {
	if filters.From == "" || filters.To == "" {
		return eris.New("statement history needs both from and to dates")
	}
	from, err := time.Parse("2006-01-02", filters.From)
	if err != nil {
		return eris.Wrapf(err, "invalid from date %q", filters.From)
	}
	to, err := time.Parse("2006-01-02", filters.To)
	if err != nil {
		return eris.Wrapf(err, "invalid to date %q", filters.To)
	}
	if from.After(to) {
		return eris.Errorf("from date %s is after to date %s", filters.From, filters.To)
	}
	return nil
}

func documentItems(list *giModels.DocumentList) []*giModels.DocumentItem {
	if list == nil {
		return nil
	}
	return list.DocumentItems
}

func sortByTimestamp(docs []*giModels.DocumentItem) {
	sort.SliceStable(docs, func(i, j int) bool {
		return documentTime(docs[i]).Before(documentTime(docs[j]))
	})
}

func documentTime(doc *giModels.DocumentItem) time.Time {
	t, err := giUtil.ParseDateTime(doc.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}
