package service

import (
	"context"
	"sort"

	"liquorstock/internal/domain"
	"liquorstock/internal/repository"

	"github.com/google/uuid"
)

// memStore is the shared in-memory state behind the mock repositories. The
// mock transaction manager snapshots and restores it so rollback behavior
// can be asserted without a database.
type memStore struct {
	products  map[uuid.UUID]*domain.Product
	batches   map[uuid.UUID]*domain.Batch
	sales     map[uuid.UUID]*domain.Sale
	purchases map[uuid.UUID]*domain.Purchase
}

func newMemStore() *memStore {
	return &memStore{
		products:  make(map[uuid.UUID]*domain.Product),
		batches:   make(map[uuid.UUID]*domain.Batch),
		sales:     make(map[uuid.UUID]*domain.Sale),
		purchases: make(map[uuid.UUID]*domain.Purchase),
	}
}

func (s *memStore) clone() *memStore {
	snapshot := newMemStore()
	for id, p := range s.products {
		cp := *p
		snapshot.products[id] = &cp
	}
	for id, b := range s.batches {
		cb := *b
		snapshot.batches[id] = &cb
	}
	for id, sale := range s.sales {
		cs := *sale
		snapshot.sales[id] = &cs
	}
	for id, purchase := range s.purchases {
		cp := *purchase
		snapshot.purchases[id] = &cp
	}
	return snapshot
}

func (s *memStore) restore(snapshot *memStore) {
	s.products = snapshot.products
	s.batches = snapshot.batches
	s.sales = snapshot.sales
	s.purchases = snapshot.purchases
}

// mockTxManager runs the unit of work against the shared store and restores
// the pre-transaction snapshot when it fails.
type mockTxManager struct {
	store *memStore
}

func (m *mockTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, q repository.Querier) error) error {
	snapshot := m.store.clone()
	if err := fn(ctx, nil); err != nil {
		m.store.restore(snapshot)
		return err
	}
	return nil
}

type mockProductRepo struct {
	store *memStore
}

func (r *mockProductRepo) Create(ctx context.Context, product *domain.Product) error {
	for _, existing := range r.store.products {
		if existing.Barcode != nil && product.Barcode != nil && *existing.Barcode == *product.Barcode {
			return repository.ErrBarcodeTaken
		}
	}
	cp := *product
	r.store.products[product.ID] = &cp
	return nil
}

func (r *mockProductRepo) Update(ctx context.Context, product *domain.Product) error {
	if _, ok := r.store.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	cp := *product
	r.store.products[product.ID] = &cp
	return nil
}

func (r *mockProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.store.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(r.store.products, id)
	return nil
}

func (r *mockProductRepo) FindByID(ctx context.Context, q repository.Querier, id uuid.UUID) (*domain.Product, error) {
	product, ok := r.store.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *product
	return &cp, nil
}

func (r *mockProductRepo) List(ctx context.Context) ([]*domain.Product, error) {
	products := make([]*domain.Product, 0, len(r.store.products))
	for _, p := range r.store.products {
		cp := *p
		products = append(products, &cp)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}

// mockBatchRepo serves batches from the store. staleQuantity, when set for a
// batch, inflates the quantity reported by LockForAllocation while Decrement
// keeps checking the real value, reproducing a snapshot that went stale
// between read and write.
type mockBatchRepo struct {
	store         *memStore
	staleQuantity map[uuid.UUID]int
}

func (r *mockBatchRepo) Create(ctx context.Context, q repository.Querier, batch *domain.Batch) error {
	cp := *batch
	r.store.batches[batch.ID] = &cp
	return nil
}

func (r *mockBatchRepo) FindByID(ctx context.Context, q repository.Querier, id uuid.UUID) (*domain.Batch, error) {
	batch, ok := r.store.batches[id]
	if !ok {
		return nil, repository.ErrBatchNotFound
	}
	cp := *batch
	return &cp, nil
}

func (r *mockBatchRepo) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Batch, error) {
	return r.batchesOf(productID, false), nil
}

func (r *mockBatchRepo) LockForAllocation(ctx context.Context, q repository.Querier, productID uuid.UUID) ([]*domain.Batch, error) {
	return r.batchesOf(productID, true), nil
}

func (r *mockBatchRepo) Decrement(ctx context.Context, q repository.Querier, id uuid.UUID, quantity int) error {
	batch, ok := r.store.batches[id]
	if !ok || batch.CurrentQuantity < quantity {
		return repository.ErrBatchConflict
	}
	batch.CurrentQuantity -= quantity
	return nil
}

func (r *mockBatchRepo) batchesOf(productID uuid.UUID, positiveOnly bool) []*domain.Batch {
	batches := []*domain.Batch{}
	for _, b := range r.store.batches {
		if b.ProductID != productID {
			continue
		}
		cp := *b
		if stale, ok := r.staleQuantity[b.ID]; ok {
			cp.CurrentQuantity = stale
		}
		if positiveOnly && cp.CurrentQuantity <= 0 {
			continue
		}
		batches = append(batches, &cp)
	}
	// Storage order, like the real repository.
	sort.Slice(batches, func(i, j int) bool {
		if !batches[i].CreatedAt.Equal(batches[j].CreatedAt) {
			return batches[i].CreatedAt.Before(batches[j].CreatedAt)
		}
		return batches[i].ID.String() < batches[j].ID.String()
	})
	return batches
}

type mockSaleRepo struct {
	store *memStore
}

func (r *mockSaleRepo) Create(ctx context.Context, q repository.Querier, sale *domain.Sale) error {
	cp := *sale
	cp.Lines = append([]domain.SaleLine(nil), sale.Lines...)
	r.store.sales[sale.ID] = &cp
	return nil
}

func (r *mockSaleRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	sale, ok := r.store.sales[id]
	if !ok {
		return nil, repository.ErrSaleNotFound
	}
	cp := *sale
	return &cp, nil
}

type mockPurchaseRepo struct {
	store *memStore
}

func (r *mockPurchaseRepo) Create(ctx context.Context, q repository.Querier, purchase *domain.Purchase) error {
	cp := *purchase
	cp.Lines = append([]domain.PurchaseLine(nil), purchase.Lines...)
	r.store.purchases[purchase.ID] = &cp
	return nil
}

func (r *mockPurchaseRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Purchase, error) {
	purchase, ok := r.store.purchases[id]
	if !ok {
		return nil, repository.ErrPurchaseNotFound
	}
	cp := *purchase
	return &cp, nil
}

// mockReportRepo returns canned report rows.
type mockReportRepo struct {
	stocks  []repository.ProductStock
	expiry  []repository.ExpiringBatch
	loadErr error
}

func (r *mockReportRepo) ProductStocks(ctx context.Context) ([]repository.ProductStock, error) {
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	return r.stocks, nil
}

func (r *mockReportRepo) BatchesWithExpiry(ctx context.Context) ([]repository.ExpiringBatch, error) {
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	return r.expiry, nil
}

type mockUserRepo struct {
	users map[string]*domain.User
}

func (r *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	if _, ok := r.users[user.Username]; ok {
		return repository.ErrUserAlreadyExists
	}
	cp := *user
	r.users[user.Username] = &cp
	return nil
}

func (r *mockUserRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	user, ok := r.users[username]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

func (r *mockUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, user := range r.users {
		if user.ID == id {
			cp := *user
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

type mockRefreshTokenRepo struct {
	tokens map[string]*domain.RefreshToken
}

func (r *mockRefreshTokenRepo) Create(ctx context.Context, token *domain.RefreshToken) error {
	cp := *token
	r.tokens[token.Token] = &cp
	return nil
}

func (r *mockRefreshTokenRepo) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	rt, ok := r.tokens[token]
	if !ok {
		return nil, repository.ErrRefreshTokenNotFound
	}
	if rt.Revoked {
		return nil, repository.ErrRefreshTokenRevoked
	}
	cp := *rt
	return &cp, nil
}

func (r *mockRefreshTokenRepo) Revoke(ctx context.Context, token string) error {
	rt, ok := r.tokens[token]
	if !ok {
		return repository.ErrRefreshTokenNotFound
	}
	rt.Revoked = true
	return nil
}
