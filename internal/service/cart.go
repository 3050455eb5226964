package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foodieexpress/storefront/internal/domain"
	"github.com/foodieexpress/storefront/internal/repository"
	apperrors "github.com/foodieexpress/storefront/pkg/errors"
)

// DefaultPersistTimeout bounds a single repository call.
const DefaultPersistTimeout = 2 * time.Second

// Op names a cart mutation.
type Op string

// Cart mutation operations.
const (
	OpAddItem        Op = "add_item"
	OpRemoveItem     Op = "remove_item"
	OpUpdateQuantity Op = "update_quantity"
	OpClear          Op = "clear"
	OpSettleOrder    Op = "settle_order"
	OpSetAddress     Op = "set_address"
	OpApplyDiscount  Op = "apply_discount"
	OpToggleOpen     Op = "toggle_open"
	OpOpen           Op = "open"
	OpClose          Op = "close"
)

// AffectsContents reports whether the operation changes anything beyond the
// transient open flag.
func (o Op) AffectsContents() bool {
	switch o {
	case OpToggleOpen, OpOpen, OpClose:
		return false
	default:
		return true
	}
}

// Change describes a successful mutation. Cart is a snapshot that listeners
// may read freely.
type Change struct {
	SessionID string
	Op        Op
	Cart      *domain.Cart
}

// Listener is notified after every successful mutation.
type Listener func(ctx context.Context, change Change)

// AddItemInput holds the parameters for adding an item to the cart.
type AddItemInput struct {
	MenuItem       domain.MenuItem
	Quantity       int
	RestaurantID   string
	RestaurantName string
	Customizations []string
}

// session is the in-memory state of one cart. mu serializes mutations and
// guards outbox; persistMu orders repository writes and listener calls.
// Lock order is persistMu then mu.
type session struct {
	mu        sync.Mutex
	persistMu sync.Mutex
	cart      *domain.Cart
	lastSeen  time.Time
	evicted   bool
	persisted atomic.Int64
	outbox    []pendingChange
}

// pendingChange is a change waiting to be persisted and announced, in the
// order the mutations were applied.
type pendingChange struct {
	ctx    context.Context
	change Change
}

func (s *session) dirty() bool {
	return int64(s.cart.Version) != s.persisted.Load()
}

// CartService owns every session's cart. The in-memory cart is authoritative;
// the repository is a best-effort copy used to survive restarts.
type CartService struct {
	repo           repository.CartRepository
	logger         *slog.Logger
	persistTimeout time.Duration
	now            func() time.Time

	mu       sync.Mutex
	sessions map[string]*session

	listenersMu sync.RWMutex
	listeners   map[uint64]Listener
	nextID      uint64
}

// NewCartService creates a new cart service.
func NewCartService(repo repository.CartRepository, logger *slog.Logger, persistTimeout time.Duration) *CartService {
	if persistTimeout <= 0 {
		persistTimeout = DefaultPersistTimeout
	}
	return &CartService{
		repo:           repo,
		logger:         logger,
		persistTimeout: persistTimeout,
		now:            time.Now,
		sessions:       make(map[string]*session),
		listeners:      make(map[uint64]Listener),
	}
}

// Subscribe registers l for change notifications and returns a function that
// removes it. The returned function is safe to call more than once. Changes
// to one session arrive in version order. A listener must not mutate the
// session it is notified about.
func (s *CartService) Subscribe(l Listener) func() {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			delete(s.listeners, id)
			s.listenersMu.Unlock()
		})
	}
}

// GetCart returns a snapshot of the session's cart, restoring it from the
// repository on first access.
func (s *CartService) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	sess := s.acquire(ctx, sessionID)
	snap := sess.cart.Snapshot()
	sess.mu.Unlock()

	return snap, nil
}

// AddItem adds an item to the session's cart, replacing the cart's contents
// when the item comes from a different restaurant.
func (s *CartService) AddItem(ctx context.Context, sessionID string, input AddItemInput) (*domain.Cart, error) {
	cart, err := s.mutate(ctx, sessionID, OpAddItem, func(c *domain.Cart) error {
		return c.AddItem(input.MenuItem, input.Quantity, input.RestaurantID, input.RestaurantName, input.Customizations)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("session_id", sessionID),
		slog.String("menu_item_id", input.MenuItem.ID),
		slog.String("restaurant_id", input.RestaurantID),
		slog.Int("quantity", input.Quantity),
	)

	return cart, nil
}

// RemoveItem removes a line from the cart. Removing a missing line is a no-op.
func (s *CartService) RemoveItem(ctx context.Context, sessionID, menuItemID string, customizations []string) (*domain.Cart, error) {
	if menuItemID == "" {
		return nil, apperrors.InvalidInput("menu item id is required")
	}

	cart, err := s.mutate(ctx, sessionID, OpRemoveItem, func(c *domain.Cart) error {
		c.RemoveItem(menuItemID, customizations)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "item removed from cart",
		slog.String("session_id", sessionID),
		slog.String("menu_item_id", menuItemID),
	)

	return cart, nil
}

// UpdateQuantity sets a line's quantity. A quantity of zero or less removes
// the line.
func (s *CartService) UpdateQuantity(ctx context.Context, sessionID, menuItemID string, quantity int, customizations []string) (*domain.Cart, error) {
	if menuItemID == "" {
		return nil, apperrors.InvalidInput("menu item id is required")
	}

	cart, err := s.mutate(ctx, sessionID, OpUpdateQuantity, func(c *domain.Cart) error {
		c.UpdateQuantity(menuItemID, quantity, customizations)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "cart item quantity updated",
		slog.String("session_id", sessionID),
		slog.String("menu_item_id", menuItemID),
		slog.Int("quantity", quantity),
	)

	return cart, nil
}

// ClearCart empties the cart and resets all pricing.
func (s *CartService) ClearCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.mutate(ctx, sessionID, OpClear, func(c *domain.Cart) error {
		c.Clear()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "cart cleared", slog.String("session_id", sessionID))

	return cart, nil
}

// SettleOrder takes an accepted order out of the cart. A cart still at
// ordered's version is cleared. A cart changed since then only loses the
// ordered quantities, so lines added while the order was in flight stay.
func (s *CartService) SettleOrder(ctx context.Context, sessionID string, ordered *domain.Cart) (*domain.Cart, error) {
	if ordered == nil {
		return nil, apperrors.InvalidInput("ordered cart is required")
	}

	changed := false
	cart, err := s.mutate(ctx, sessionID, OpSettleOrder, func(c *domain.Cart) error {
		if c.Version == ordered.Version {
			c.Clear()
			return nil
		}
		changed = true
		c.RemoveOrdered(ordered.Lines)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.logger.InfoContext(ctx, "cart changed during checkout, ordered lines removed",
			slog.String("session_id", sessionID),
			slog.Int("ordered_version", ordered.Version),
			slog.Int("lines_left", len(cart.Lines)),
		)
	} else {
		s.logger.InfoContext(ctx, "cart settled after order", slog.String("session_id", sessionID))
	}

	return cart, nil
}

// SetDeliveryAddress stores the delivery address. A nil address clears it
// together with the delivery fee.
func (s *CartService) SetDeliveryAddress(ctx context.Context, sessionID string, addr *domain.Address) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, OpSetAddress, func(c *domain.Cart) error {
		c.SetDeliveryAddress(addr)
		return nil
	})
}

// ApplyDiscount replaces the cart's discount amount.
func (s *CartService) ApplyDiscount(ctx context.Context, sessionID string, amount decimal.Decimal) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, OpApplyDiscount, func(c *domain.Cart) error {
		return c.ApplyDiscount(amount)
	})
}

// ToggleOpen flips the cart's visibility.
func (s *CartService) ToggleOpen(ctx context.Context, sessionID string) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, OpToggleOpen, func(c *domain.Cart) error {
		c.ToggleOpen()
		return nil
	})
}

// Open shows the cart.
func (s *CartService) Open(ctx context.Context, sessionID string) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, OpOpen, func(c *domain.Cart) error {
		c.Open()
		return nil
	})
}

// Close hides the cart.
func (s *CartService) Close(ctx context.Context, sessionID string) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, OpClose, func(c *domain.Cart) error {
		c.Close()
		return nil
	})
}

// Evict drops in-memory carts idle for longer than idle. Carts with unsaved
// changes and carts in use are kept. It returns the number evicted.
func (s *CartService) Evict(idle time.Duration) int {
	cutoff := s.now().Add(-idle)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, sess := range s.sessions {
		if !sess.mu.TryLock() {
			continue
		}
		if sess.lastSeen.Before(cutoff) && !sess.dirty() {
			sess.evicted = true
			delete(s.sessions, id)
			evicted++
		}
		sess.mu.Unlock()
	}
	activeSessions.Set(float64(len(s.sessions)))

	return evicted
}

// Flush retries persistence for every cart whose latest version has not been
// stored. It returns the number of carts that are still unsaved.
func (s *CartService) Flush(ctx context.Context) int {
	s.mu.Lock()
	pending := make(map[string]*session, len(s.sessions))
	for id, sess := range s.sessions {
		pending[id] = sess
	}
	s.mu.Unlock()

	failed := 0
	for id, sess := range pending {
		sess.mu.Lock()
		if !sess.dirty() {
			sess.mu.Unlock()
			continue
		}
		snap := sess.cart.Snapshot()
		sess.mu.Unlock()

		if !s.persist(ctx, id, sess, snap) {
			failed++
		}
	}

	return failed
}

// SessionCount returns the number of carts held in memory.
func (s *CartService) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// mutate applies fn to the session's cart under its lock. Rejected
// mutations leave the cart untouched. Persistence and notification happen
// after the lock is released, in mutation order, and never fail the
// mutation.
func (s *CartService) mutate(ctx context.Context, sessionID string, op Op, fn func(*domain.Cart) error) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	sess := s.acquire(ctx, sessionID)
	if err := fn(sess.cart); err != nil {
		sess.mu.Unlock()
		cartMutations.WithLabelValues(string(op), "rejected").Inc()
		return nil, err
	}
	if op.AffectsContents() {
		sess.cart.Version++
		sess.cart.UpdatedAt = s.now().UTC()
	}
	snap := sess.cart.Snapshot()
	sess.outbox = append(sess.outbox, pendingChange{
		ctx:    context.WithoutCancel(ctx),
		change: Change{SessionID: sessionID, Op: op, Cart: snap},
	})
	sess.mu.Unlock()

	cartMutations.WithLabelValues(string(op), "ok").Inc()
	s.deliver(sessionID, sess)

	return snap, nil
}

// deliver drains the session's outbox. It persists the newest contents
// change and hands every change to the listeners in version order. A change
// queued by a concurrent mutation may be delivered here; either way it is
// delivered before its own mutate returns.
func (s *CartService) deliver(sessionID string, sess *session) {
	sess.persistMu.Lock()
	defer sess.persistMu.Unlock()

	sess.mu.Lock()
	pending := sess.outbox
	sess.outbox = nil
	sess.mu.Unlock()

	var latest *pendingChange
	for i := range pending {
		if pending[i].change.Op.AffectsContents() {
			latest = &pending[i]
		}
	}
	if latest != nil {
		s.persistLocked(latest.ctx, sessionID, sess, latest.change.Cart)
	}

	for _, p := range pending {
		s.notify(p.ctx, p.change)
	}
}

// acquire returns the session locked, loading it on first access.
func (s *CartService) acquire(ctx context.Context, sessionID string) *session {
	for {
		s.mu.Lock()
		sess, ok := s.sessions[sessionID]
		if !ok {
			sess = &session{}
			sess.mu.Lock()
			s.sessions[sessionID] = sess
			activeSessions.Set(float64(len(s.sessions)))
			s.mu.Unlock()

			sess.cart = s.restore(ctx, sessionID)
			sess.persisted.Store(int64(sess.cart.Version))
			sess.lastSeen = s.now()
			return sess
		}
		s.mu.Unlock()

		sess.mu.Lock()
		if sess.evicted {
			sess.mu.Unlock()
			continue
		}
		sess.lastSeen = s.now()
		return sess
	}
}

// restore loads a stored cart. Any failure yields an empty cart.
func (s *CartService) restore(ctx context.Context, sessionID string) *domain.Cart {
	ctx, cancel := context.WithTimeout(ctx, s.persistTimeout)
	defer cancel()

	cart, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			cartPersistFailures.WithLabelValues("restore").Inc()
			s.logger.WarnContext(ctx, "failed to restore cart, starting empty",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()),
			)
		}
		return domain.NewCart()
	}

	cart.IsOpen = false
	cart.Recompute()
	if err := cart.Validate(); err != nil {
		cartPersistFailures.WithLabelValues("invalid").Inc()
		s.logger.WarnContext(ctx, "stored cart is inconsistent, starting empty",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
		return domain.NewCart()
	}
	return cart
}

// persist writes snap unless a newer version is already stored. It reports
// whether the repository now holds snap or something newer.
func (s *CartService) persist(ctx context.Context, sessionID string, sess *session, snap *domain.Cart) bool {
	sess.persistMu.Lock()
	defer sess.persistMu.Unlock()
	return s.persistLocked(ctx, sessionID, sess, snap)
}

// persistLocked is persist with sess.persistMu held.
func (s *CartService) persistLocked(ctx context.Context, sessionID string, sess *session, snap *domain.Cart) bool {
	if int64(snap.Version) <= sess.persisted.Load() {
		return true
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.persistTimeout)
	defer cancel()

	var err error
	if snap.IsPristine() {
		err = s.repo.Delete(ctx, sessionID)
	} else {
		err = s.repo.Save(ctx, sessionID, snap)
	}
	if err != nil {
		cartPersistFailures.WithLabelValues("save").Inc()
		s.logger.ErrorContext(ctx, "failed to persist cart",
			slog.String("session_id", sessionID),
			slog.Int("version", snap.Version),
			slog.String("error", err.Error()),
		)
		return false
	}

	sess.persisted.Store(int64(snap.Version))
	return true
}

func (s *CartService) notify(ctx context.Context, change Change) {
	s.listenersMu.RLock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.listenersMu.RUnlock()

	for _, l := range listeners {
		l(ctx, change)
	}
}
