package ledger

import (
	"context"
	"time"

	"money-layer/internal/access"
	"money-layer/internal/events"
	"money-layer/internal/logging"
	"money-layer/internal/models"
	"money-layer/internal/store"
)

// Filter narrows statement and balance queries.
type Filter = store.TransactionFilter

// Balance is the income/expense summary of an owner's filtered rows.
type Balance struct {
	IncomeCents  int64
	ExpenseCents int64
	NetCents     int64
	Role         string
}

// Service runs ledger operations on behalf of an authenticated user. Every
// query is scoped to the actor's own rows.
type Service struct {
	txs    *store.TransactionStore
	access *access.Controller
	events events.Publisher
	log    *logging.Logger
	now    func() time.Time
}

func NewService(txs *store.TransactionStore, ac *access.Controller, pub events.Publisher, log *logging.Logger) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	if log == nil {
		log = logging.Discard()
	}
	if ac == nil {
		ac = access.NewController(nil)
	}
	return &Service{
		txs:    txs,
		access: ac,
		events: pub,
		log:    log.WithComponent(logging.ComponentLedger),
		now:    time.Now,
	}
}

// Now returns the service clock, used to default the base date.
func (s *Service) Now() time.Time {
	return s.now()
}

// Create expands the entry and stores every installment atomically.
func (s *Service) Create(ctx context.Context, actor *models.User, e Entry) ([]models.Transaction, error) {
	if err := s.access.Authenticated(actor); err != nil {
		return nil, err
	}
	rows, err := Expand(e, actor.ID)
	if err != nil {
		return nil, err
	}
	if err := s.txs.CreateBatch(ctx, rows); err != nil {
		return nil, err
	}

	ids := make([]uint, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	s.publish(ctx, events.Event{
		Type:           events.TypeTransactionsCreated,
		OwnerID:        actor.ID,
		TransactionIDs: ids,
		TotalCents:     rows[0].TotalCents,
	})
	s.log.InfoContext(ctx, "transactions created",
		logging.FieldOperation, logging.OpCreate,
		logging.FieldUserID, actor.ID,
		logging.FieldCount, len(rows),
		logging.FieldAmount, rows[0].TotalCents)
	return rows, nil
}

// List returns the actor's rows matching f, latest due date first.
func (s *Service) List(ctx context.Context, actor *models.User, f Filter) ([]models.Transaction, error) {
	if err := s.access.Authenticated(actor); err != nil {
		return nil, err
	}
	return s.txs.List(ctx, actor.ID, f)
}

// Balance sums the actor's rows matching f.
func (s *Service) Balance(ctx context.Context, actor *models.User, f Filter) (Balance, error) {
	if err := s.access.Authenticated(actor); err != nil {
		return Balance{}, err
	}
	t, err := s.txs.Totals(ctx, actor.ID, f)
	if err != nil {
		return Balance{}, err
	}
	return Balance{
		IncomeCents:  t.IncomeCents,
		ExpenseCents: t.ExpenseCents,
		NetCents:     t.IncomeCents - t.ExpenseCents,
		Role:         actor.Role,
	}, nil
}

// Get returns one of the actor's rows. Rows owned by someone else are
// reported as not found.
func (s *Service) Get(ctx context.Context, actor *models.User, id uint) (*models.Transaction, error) {
	if err := s.access.Authenticated(actor); err != nil {
		return nil, err
	}
	return s.txs.GetOwned(ctx, actor.ID, id)
}

// Delete removes one row as allowed by the configured delete policy.
func (s *Service) Delete(ctx context.Context, actor *models.User, id uint) error {
	scope, err := s.access.DeleteScope(actor)
	if err != nil {
		return err
	}
	switch scope {
	case access.ScopeAny:
		err = s.txs.Delete(ctx, id)
	default:
		err = s.txs.DeleteOwned(ctx, actor.ID, id)
	}
	if err != nil {
		return err
	}

	s.publish(ctx, events.Event{
		Type:           events.TypeTransactionDeleted,
		OwnerID:        actor.ID,
		TransactionIDs: []uint{id},
	})
	s.log.InfoContext(ctx, "transaction deleted",
		logging.FieldOperation, logging.OpDelete,
		logging.FieldUserID, actor.ID,
		logging.FieldTxID, id)
	return nil
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	e.Timestamp = s.now().UTC()
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.WarnContext(ctx, "publish event failed",
			logging.FieldOperation, logging.OpPublish,
			logging.FieldEventType, e.Type,
			logging.FieldError, err)
	}
}
