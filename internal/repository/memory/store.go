// Package memory provides mutex-guarded in-memory implementations of the
// repository interfaces. Transactions are serialized and rolled back by
// restoring a snapshot.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"tailor_tracker/internal/lifecycle"
	"tailor_tracker/internal/models"
	"tailor_tracker/internal/repository"
)

type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	orders        map[uuid.UUID]models.Order
	items         map[uuid.UUID]models.OrderItem
	notifications map[uuid.UUID]models.Notification
	revisions     []models.PriceRevision
	users         map[uuid.UUID]models.User
}

func NewStore() *Store {
	return &Store{
		orders:        make(map[uuid.UUID]models.Order),
		items:         make(map[uuid.UUID]models.OrderItem),
		notifications: make(map[uuid.UUID]models.Notification),
		users:         make(map[uuid.UUID]models.User),
	}
}

// New returns a repository.Repository backed by a fresh store.
func New() *repository.Repository {
	return NewStore().Repository()
}

func (s *Store) Repository() *repository.Repository {
	return repository.Compose(s.parts(), s.withTx)
}

func (s *Store) parts() repository.Repository {
	return repository.Repository{
		Orders:         &orderRepo{s},
		OrderItems:     &orderItemRepo{s},
		Notifications:  &notificationRepo{s},
		PriceRevisions: &revisionRepo{s},
		Users:          &userRepo{s},
	}
}

func (s *Store) withTx(ctx context.Context, fn func(tx *repository.Repository) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(repository.Compose(s.parts(), nil)); err != nil {
		s.restore(snap)
		return err
	}
	if err := ctx.Err(); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	items     map[uuid.UUID]models.OrderItem
	revisions []models.PriceRevision
	notes     map[uuid.UUID]models.Notification
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := snapshot{
		items:     make(map[uuid.UUID]models.OrderItem, len(s.items)),
		revisions: append([]models.PriceRevision(nil), s.revisions...),
		notes:     make(map[uuid.UUID]models.Notification, len(s.notifications)),
	}
	for k, v := range s.items {
		snap.items[k] = v.Clone()
	}
	for k, v := range s.notifications {
		snap.notes[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = snap.items
	s.revisions = snap.revisions
	s.notifications = snap.notes
}

type orderItemRepo struct{ s *Store }

func (r *orderItemRepo) Create(ctx context.Context, item *models.OrderItem) error {
	item.PrepareForCreate(time.Now())
	now := time.Now()
	item.CreatedAt, item.UpdatedAt = now, now

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[item.ID]; ok {
		return repository.ErrDuplicate
	}
	r.s.items[item.ID] = item.Clone()
	return nil
}

func (r *orderItemRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.OrderItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	item, ok := r.s.items[id]
	if !ok {
		return nil, nil
	}
	c := item.Clone()
	return &c, nil
}

func (r *orderItemRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.OrderItem, error) {
	return r.GetByID(ctx, id)
}

func (r *orderItemRepo) filter(keep func(models.OrderItem) bool, less func(a, b models.OrderItem) bool) []models.OrderItem {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.OrderItem
	for _, it := range r.s.items {
		if keep(it) {
			out = append(out, it.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func byOrderDate(a, b models.OrderItem) bool { return a.OrderDate.Before(b.OrderDate) }

func (r *orderItemRepo) GetByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	return r.filter(func(it models.OrderItem) bool { return it.OrderID == orderID }, func(a, b models.OrderItem) bool {
		return a.CreatedAt.Before(b.CreatedAt)
	}), nil
}

func (r *orderItemRepo) GetByUserID(ctx context.Context, userID uuid.UUID) ([]models.OrderItem, error) {
	return r.filter(func(it models.OrderItem) bool { return it.UserID == userID }, func(a, b models.OrderItem) bool {
		return a.OrderDate.After(b.OrderDate)
	}), nil
}

func (r *orderItemRepo) GetByStatus(ctx context.Context, status lifecycle.Status) ([]models.OrderItem, error) {
	return r.filter(func(it models.OrderItem) bool { return it.Status() == status }, byOrderDate), nil
}

func (r *orderItemRepo) FindScheduledOn(ctx context.Context, day time.Time, excluded []lifecycle.Status) ([]models.OrderItem, error) {
	want := day.Format(lifecycle.DateLayout)
	skip := make(map[lifecycle.Status]bool, len(excluded))
	for _, s := range excluded {
		skip[s] = true
	}
	return r.filter(func(it models.OrderItem) bool {
		return it.ScheduledDate != nil &&
			it.ScheduledDate.Format(lifecycle.DateLayout) == want &&
			!skip[it.Status()]
	}, byOrderDate), nil
}

func (r *orderItemRepo) UpdateLifecycle(ctx context.Context, item *models.OrderItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.items[item.ID]
	if !ok {
		return nil
	}
	item.UpdatedAt = time.Now()
	updated := item.Clone()
	stored.ApprovalStatus = updated.ApprovalStatus
	stored.FinalPrice = updated.FinalPrice
	stored.PricingFactors = updated.PricingFactors
	stored.StatusUpdatedAt = updated.StatusUpdatedAt
	stored.UpdatedAt = updated.UpdatedAt
	r.s.items[item.ID] = stored
	return nil
}

type orderRepo struct{ s *Store }

func (r *orderRepo) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.OrderDate.IsZero() {
		order.OrderDate = time.Now()
	}
	now := time.Now()
	order.CreatedAt, order.UpdatedAt = now, now

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range order.Items {
		it := &order.Items[i]
		it.OrderID = order.ID
		it.UserID = order.UserID
		if it.OrderDate.IsZero() {
			it.OrderDate = order.OrderDate
		}
		it.PrepareForCreate(now)
		it.CreatedAt, it.UpdatedAt = now, now
		r.s.items[it.ID] = it.Clone()
	}
	stored := *order
	stored.Items = nil
	r.s.orders[order.ID] = stored
	return nil
}

func (r *orderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	r.s.mu.RLock()
	order, ok := r.s.orders[id]
	r.s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	items, _ := (&orderItemRepo{r.s}).GetByOrderID(ctx, id)
	order.Items = items
	return &order, nil
}

func (r *orderRepo) GetByUserID(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	r.s.mu.RLock()
	var ids []uuid.UUID
	for id, o := range r.s.orders {
		if o.UserID == userID {
			ids = append(ids, id)
		}
	}
	r.s.mu.RUnlock()

	out := make([]models.Order, 0, len(ids))
	for _, id := range ids {
		o, _ := r.GetByID(ctx, id)
		out = append(out, *o)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OrderDate.After(out[j].OrderDate) })
	return out, nil
}

type notificationRepo struct{ s *Store }

func sameDedupeKey(a, b models.Notification) bool {
	if a.DedupeDate == nil || b.DedupeDate == nil {
		return false
	}
	return a.OrderItemID == b.OrderItemID && a.Type == b.Type &&
		a.DedupeDate.Format(lifecycle.DateLayout) == b.DedupeDate.Format(lifecycle.DateLayout)
}

func (r *notificationRepo) insert(n *models.Notification) bool {
	for _, existing := range r.s.notifications {
		if sameDedupeKey(existing, *n) {
			return false
		}
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.CreatedAt = time.Now()
	r.s.notifications[n.ID] = *n
	return true
}

func (r *notificationRepo) Create(ctx context.Context, n *models.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.insert(n) {
		return repository.ErrDuplicate
	}
	return nil
}

func (r *notificationRepo) CreateIfAbsent(ctx context.Context, n *models.Notification) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.insert(n), nil
}

func (r *notificationRepo) ExistsForDay(ctx context.Context, itemID uuid.UUID, typ models.NotificationType, day time.Time) (bool, error) {
	key := models.Notification{OrderItemID: itemID, Type: typ, DedupeDate: &day}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, existing := range r.s.notifications {
		if sameDedupeKey(existing, key) {
			return true, nil
		}
	}
	return false, nil
}

func (r *notificationRepo) list(keep func(models.Notification) bool) []models.Notification {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.Notification
	for _, n := range r.s.notifications {
		if keep(n) {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *notificationRepo) GetByUserID(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	out := r.list(func(n models.Notification) bool { return n.UserID == userID })
	// newest first, like the SQL implementation
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *notificationRepo) GetByOrderItemID(ctx context.Context, itemID uuid.UUID) ([]models.Notification, error) {
	return r.list(func(n models.Notification) bool { return n.OrderItemID == itemID }), nil
}

func (r *notificationRepo) MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if n, ok := r.s.notifications[id]; ok {
		n.DeliveredAt = &at
		r.s.notifications[id] = n
	}
	return nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok || n.UserID != userID {
		return false, nil
	}
	n.IsRead = true
	r.s.notifications[id] = n
	return true, nil
}

type revisionRepo struct{ s *Store }

func (r *revisionRepo) Create(ctx context.Context, rev *models.PriceRevision) error {
	if rev.ID == uuid.Nil {
		rev.ID = uuid.New()
	}
	rev.CreatedAt = time.Now()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.revisions = append(r.s.revisions, *rev)
	return nil
}

func (r *revisionRepo) GetByOrderItemID(ctx context.Context, itemID uuid.UUID) ([]models.PriceRevision, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.PriceRevision
	for _, rev := range r.s.revisions {
		if rev.OrderItemID == itemID {
			out = append(out, rev)
		}
	}
	return out, nil
}

type userRepo struct{ s *Store }

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if user.Email != "" && u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.s.users[user.ID] = *user
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *userRepo) GetByWhatsAppNumber(ctx context.Context, number string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.IsActive && u.ContactNumber() == number {
			return &u, nil
		}
	}
	return nil, nil
}
