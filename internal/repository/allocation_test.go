package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"sync"
	"testing"
	"time"

	"liquorstock/internal/database"
	"liquorstock/internal/domain"
	"liquorstock/internal/repository"
	"liquorstock/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var testDB *sql.DB

func setupTestDB() (func(context.Context, ...testcontainers.TerminateOption) error, error) {
	var (
		dbName = "testdb"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:15",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	if err != nil {
		return nil, err
	}

	dbHost, err := dbContainer.Host(context.Background())
	if err != nil {
		return dbContainer.Terminate, err
	}

	dbPort, err := dbContainer.MappedPort(context.Background(), "5432/tcp")
	if err != nil {
		return dbContainer.Terminate, err
	}

	connStr := "postgres://" + dbUser + ":" + dbPwd + "@" + dbHost + ":" + dbPort.Port() + "/" + dbName + "?sslmode=disable"
	testDB, err = sql.Open("pgx", connStr)
	if err != nil {
		return dbContainer.Terminate, err
	}

	if err := database.RunMigrations(testDB, "../../migrations", zap.NewNop()); err != nil {
		return dbContainer.Terminate, err
	}

	return dbContainer.Terminate, nil
}

func TestMain(m *testing.M) {
	teardown, err := setupTestDB()
	if err != nil {
		log.Fatalf("could not start postgres container: %v", err)
	}

	m.Run()

	if teardown != nil {
		if err := teardown(context.Background()); err != nil {
			log.Fatalf("could not teardown postgres container: %v", err)
		}
	}
}

func resetTables(t *testing.T) {
	t.Helper()
	_, err := testDB.Exec(`TRUNCATE sale_lines, sales, purchase_lines, purchases, batches, products CASCADE`)
	if err != nil {
		t.Fatalf("failed to reset tables: %v", err)
	}
}

func seedProduct(t *testing.T, name string) *domain.Product {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	product := &domain.Product{
		ID:        uuid.New(),
		Name:      name,
		MinStock:  5,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repository.NewProductRepository(testDB).Create(context.Background(), product); err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	return product
}

func seedBatch(t *testing.T, productID uuid.UUID, expiry *string, quantity int, price string, createdAt time.Time) *domain.Batch {
	t.Helper()
	batch := &domain.Batch{
		ID:              uuid.New(),
		ProductID:       productID,
		ExpiryDate:      expiry,
		PurchasePrice:   decimal.RequireFromString(price),
		SellingPrice:    decimal.RequireFromString(price),
		CurrentQuantity: quantity,
		CreatedAt:       createdAt,
	}
	if err := repository.NewBatchRepository(testDB).Create(context.Background(), nil, batch); err != nil {
		t.Fatalf("failed to seed batch: %v", err)
	}
	return batch
}

func expiryOf(s string) *string { return &s }

func TestProductRepository_Lifecycle(t *testing.T) {
	resetTables(t)
	repo := repository.NewProductRepository(testDB)
	ctx := context.Background()

	barcode := "4006381333931"
	now := time.Now().UTC().Truncate(time.Microsecond)
	product := &domain.Product{
		ID:        uuid.New(),
		Name:      "Coastal IPA 330ml",
		Barcode:   &barcode,
		MinStock:  12,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := repo.Create(ctx, product); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	found, err := repo.FindByID(ctx, nil, product.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if found.Name != product.Name || found.Barcode == nil || *found.Barcode != barcode {
		t.Errorf("round trip mismatch: %+v", found)
	}

	// Same barcode on another product must be refused.
	dup := &domain.Product{ID: uuid.New(), Name: "Impostor", Barcode: &barcode, CreatedAt: now, UpdatedAt: now}
	if err := repo.Create(ctx, dup); !errors.Is(err, repository.ErrBarcodeTaken) {
		t.Errorf("expected repository.ErrBarcodeTaken, got %v", err)
	}

	found.Name = "Coastal IPA (new label)"
	found.UpdatedAt = now.Add(time.Minute)
	if err := repo.Update(ctx, found); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if err := repo.Delete(ctx, product.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.FindByID(ctx, nil, product.ID); !errors.Is(err, repository.ErrProductNotFound) {
		t.Errorf("expected repository.ErrProductNotFound after delete, got %v", err)
	}
}

func TestBatchRepository_DecrementRefusesOversell(t *testing.T) {
	resetTables(t)
	repo := repository.NewBatchRepository(testDB)
	ctx := context.Background()

	product := seedProduct(t, "Dry Cider 500ml")
	batch := seedBatch(t, product.ID, nil, 5, "4.20", time.Now().UTC())

	if err := repo.Decrement(ctx, testDB, batch.ID, 3); err != nil {
		t.Fatalf("Decrement failed: %v", err)
	}

	if err := repo.Decrement(ctx, testDB, batch.ID, 3); !errors.Is(err, repository.ErrBatchConflict) {
		t.Fatalf("expected repository.ErrBatchConflict, got %v", err)
	}

	found, err := repo.FindByID(ctx, nil, batch.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if found.CurrentQuantity != 2 {
		t.Errorf("expected quantity 2 after refused oversell, got %d", found.CurrentQuantity)
	}
}

func newSaleService() service.SaleService {
	return service.NewSaleService(
		repository.NewTxManager(testDB),
		repository.NewProductRepository(testDB),
		repository.NewBatchRepository(testDB),
		repository.NewSaleRepository(testDB),
	)
}

func TestSaleAllocation_DrawsSoonestExpiryFirst(t *testing.T) {
	resetTables(t)
	ctx := context.Background()

	product := seedProduct(t, "Vintage Port 750ml")
	base := time.Now().UTC().Add(-72 * time.Hour).Truncate(time.Microsecond)

	b3 := seedBatch(t, product.ID, nil, 5, "12.00", base)
	b1 := seedBatch(t, product.ID, expiryOf("2025-01-01"), 5, "10.00", base.Add(time.Hour))
	b2 := seedBatch(t, product.ID, expiryOf("2025-02-01"), 5, "11.00", base.Add(2*time.Hour))

	sale, err := newSaleService().CreateSale(ctx, service.SaleInput{
		Items: []service.SaleItemInput{{ProductID: product.ID, Quantity: 12}},
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}

	wantOrder := []uuid.UUID{b1.ID, b2.ID, b3.ID}
	wantQty := []int{5, 5, 2}
	if len(sale.Lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(sale.Lines))
	}
	for i := range wantOrder {
		if sale.Lines[i].BatchID != wantOrder[i] || sale.Lines[i].Quantity != wantQty[i] {
			t.Errorf("line %d: got batch %s qty %d", i, sale.Lines[i].BatchID, sale.Lines[i].Quantity)
		}
	}

	// Persisted rows must come back in allocation order.
	stored, err := repository.NewSaleRepository(testDB).FindByID(ctx, sale.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if len(stored.Lines) != 3 {
		t.Fatalf("expected 3 stored lines, got %d", len(stored.Lines))
	}
	for i := range wantOrder {
		if stored.Lines[i].BatchID != wantOrder[i] {
			t.Errorf("stored line %d out of order", i)
		}
	}
	if !stored.TotalAmount.Equal(decimal.RequireFromString("129.00")) {
		t.Errorf("expected stored total 129.00, got %s", stored.TotalAmount)
	}
}

func TestSaleAllocation_ConcurrentSalesNeverOversell(t *testing.T) {
	resetTables(t)
	ctx := context.Background()

	product := seedProduct(t, "Session Lager 330ml")
	batch := seedBatch(t, product.ID, expiryOf("2026-01-01"), 10, "2.50", time.Now().UTC())

	svc := newSaleService()

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.CreateSale(ctx, service.SaleInput{
				Items: []service.SaleItemInput{{ProductID: product.ID, Quantity: 5}},
			})
		}(i)
	}
	wg.Wait()

	for i, err := range results {
		if err != nil {
			t.Fatalf("concurrent sale %d failed: %v", i, err)
		}
	}

	remaining, err := repository.NewBatchRepository(testDB).FindByID(ctx, nil, batch.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if remaining.CurrentQuantity != 0 {
		t.Fatalf("expected batch drained, got %d", remaining.CurrentQuantity)
	}

	// The stock is gone; a third sale must fail cleanly.
	_, err = svc.CreateSale(ctx, service.SaleInput{
		Items: []service.SaleItemInput{{ProductID: product.ID, Quantity: 1}},
	})
	var stockErr *service.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
}

func TestPurchaseIngestion_PersistsBatchesAndLines(t *testing.T) {
	resetTables(t)
	ctx := context.Background()

	product := seedProduct(t, "Blended Scotch 1L")

	svc := service.NewPurchaseService(
		repository.NewTxManager(testDB),
		repository.NewProductRepository(testDB),
		repository.NewBatchRepository(testDB),
		repository.NewPurchaseRepository(testDB),
	)

	result, err := svc.CreatePurchase(ctx, service.PurchaseInput{
		SupplierName:  "Glen Imports",
		InvoiceNumber: "GI-77",
		Lines: []service.PurchaseLineInput{
			{ProductID: product.ID, Quantity: 6, PurchasePrice: decimal.RequireFromString("14.00"), SellingPrice: decimal.RequireFromString("22.00"), ExpiryDate: expiryOf("2030-01-01")},
			{ProductID: product.ID, Quantity: 6, PurchasePrice: decimal.RequireFromString("14.00"), SellingPrice: decimal.RequireFromString("22.00")},
		},
	})
	if err != nil {
		t.Fatalf("CreatePurchase failed: %v", err)
	}

	stored, err := repository.NewPurchaseRepository(testDB).FindByID(ctx, result.Purchase.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if stored.SupplierName != "Glen Imports" || len(stored.Lines) != 2 {
		t.Fatalf("stored purchase mismatch: %+v", stored)
	}

	batches, err := repository.NewBatchRepository(testDB).ListByProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("ListByProduct failed: %v", err)
	}
	if len(batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(batches))
	}
	for _, b := range batches {
		if b.CurrentQuantity != 6 {
			t.Errorf("batch %s quantity %d, expected 6", b.ID, b.CurrentQuantity)
		}
	}
}
