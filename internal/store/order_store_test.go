package store

import (
	"context"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/example/towndelivery/internal/lifecycle"
	"github.com/example/towndelivery/internal/models"
)

func initTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Merchant{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusEvent{},
		&models.OrderMessage{},
		&models.GlobalSettings{},
		&models.DeliveryZone{},
	)
	require.NoError(t, err)

	return db
}

func newTestOrder(t *testing.T, s *OrderStore, userID uuid.UUID) *models.Order {
	t.Helper()

	merchantID := uuid.New()
	order := &models.Order{
		UserID:        userID,
		Kind:          models.OrderKindMerchant,
		DeliveryFee:   25,
		PaymentMethod: models.PaymentCOD,
		Items: []models.OrderItem{
			{ProductName: "Old School", Quantity: 1, UnitPrice: 120, MerchantID: &merchantID, MerchantName: "Buffalo Burger"},
			{ProductName: "Milk 1L", Quantity: 2, UnitPrice: 45, MerchantID: &merchantID, MerchantName: "Buffalo Burger"},
		},
	}
	require.NoError(t, s.Create(context.Background(), order))
	return order
}

func TestCreateComputesTotalsAndNumbering(t *testing.T) {
	s := NewOrderStore(initTestDB(t))
	userID := uuid.New()

	first := newTestOrder(t, s, userID)
	require.Equal(t, lifecycle.StatusNew, first.Status)
	require.Equal(t, 101, first.OrderNumber)
	require.Equal(t, 210.0, first.Subtotal)
	require.Equal(t, 235.0, first.Total)

	second := newTestOrder(t, s, userID)
	require.Equal(t, 102, second.OrderNumber)

	loaded, err := s.Get(context.Background(), first.ID)
	require.NoError(t, err)
	require.Len(t, loaded.StatusHistory, 1)
	require.Equal(t, lifecycle.StatusNew, loaded.StatusHistory[0].Status)
}

func TestCreateConcurrentOrdersGetDistinctNumbers(t *testing.T) {
	db := initTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// In-memory sqlite gives every pooled connection its own database.
	sqlDB.SetMaxOpenConns(1)

	s := NewOrderStore(db)
	userID := uuid.New()

	const workers = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	numbers := make(map[int]bool, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			merchantID := uuid.New()
			order := &models.Order{
				UserID: userID,
				Kind:   models.OrderKindMerchant,
				Items: []models.OrderItem{
					{ProductName: "Milk 1L", Quantity: 1, UnitPrice: 45, MerchantID: &merchantID},
				},
			}
			if err := s.Create(context.Background(), order); err != nil {
				t.Errorf("create failed: %v", err)
				return
			}
			mu.Lock()
			numbers[order.OrderNumber] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, numbers, workers)
	for n := range numbers {
		require.GreaterOrEqual(t, n, 101)
		require.Less(t, n, 101+workers)
	}
}

func TestCreateRejectsEmptyAndInvalidItems(t *testing.T) {
	s := NewOrderStore(initTestDB(t))

	err := s.Create(context.Background(), &models.Order{UserID: uuid.New()})
	require.ErrorIs(t, err, ErrValidation)

	err = s.Create(context.Background(), &models.Order{
		UserID: uuid.New(),
		Items:  []models.OrderItem{{ProductName: "x", Quantity: 0, UnitPrice: 10}},
	})
	require.ErrorIs(t, err, ErrValidation)

	err = s.Create(context.Background(), &models.Order{
		UserID: uuid.New(),
		Items:  []models.OrderItem{{ProductName: "x", Quantity: 1, UnitPrice: -1}},
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestClaimIsExclusive(t *testing.T) {
	s := NewOrderStore(initTestDB(t))
	order := newTestOrder(t, s, uuid.New())

	courierA, courierB := uuid.New(), uuid.New()

	claimed, err := s.Claim(context.Background(), order.ID, courierA)
	require.NoError(t, err)
	require.Equal(t, lifecycle.StatusConfirmed, claimed.Status)
	require.Equal(t, courierA, *claimed.CourierID)

	_, err = s.Claim(context.Background(), order.ID, courierB)
	require.ErrorIs(t, err, ErrInvalidTransition)

	// The first courier keeps the order.
	loaded, err := s.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, courierA, *loaded.CourierID)

	_, err = s.Claim(context.Background(), uuid.New(), courierB)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAdvanceWalksPipelineAndAppendsHistory(t *testing.T) {
	s := NewOrderStore(initTestDB(t))
	order := newTestOrder(t, s, uuid.New())
	courierID := uuid.New()

	_, err := s.Claim(context.Background(), order.ID, courierID)
	require.NoError(t, err)

	expected := []string{
		lifecycle.StatusPreparing,
		lifecycle.StatusPickedUp,
		lifecycle.StatusOnTheWay,
		lifecycle.StatusNearby,
		lifecycle.StatusArrived,
		lifecycle.StatusDelivered,
	}

	for _, want := range expected {
		advanced, err := s.Advance(context.Background(), order.ID, courierID)
		require.NoError(t, err)
		require.Equal(t, want, advanced.Status)
	}

	// Terminal: no further advance.
	_, err = s.Advance(context.Background(), order.ID, courierID)
	require.ErrorIs(t, err, ErrInvalidTransition)

	loaded, err := s.Get(context.Background(), order.ID)
	require.NoError(t, err)
	// NEW + CONFIRMED + 6 advances.
	require.Len(t, loaded.StatusHistory, 8)
	for i := 1; i < len(loaded.StatusHistory); i++ {
		prev, cur := loaded.StatusHistory[i-1], loaded.StatusHistory[i]
		require.False(t, cur.RecordedAt.Before(prev.RecordedAt), "history timestamps must not decrease")
	}
}

func TestAdvanceRequiresAssignedCourier(t *testing.T) {
	s := NewOrderStore(initTestDB(t))
	order := newTestOrder(t, s, uuid.New())
	courierID := uuid.New()

	// Unclaimed order: nobody is assigned.
	_, err := s.Advance(context.Background(), order.ID, courierID)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = s.Claim(context.Background(), order.ID, courierID)
	require.NoError(t, err)

	_, err = s.Advance(context.Background(), order.ID, uuid.New())
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelLegality(t *testing.T) {
	s := NewOrderStore(initTestDB(t))
	ctx := context.Background()

	order := newTestOrder(t, s, uuid.New())
	cancelled, err := s.Cancel(ctx, order.ID, "العميل غير الرأي")
	require.NoError(t, err)
	require.Equal(t, lifecycle.StatusCancelled, cancelled.Status)
	require.Equal(t, "العميل غير الرأي", cancelled.CancellationReason)

	// Cancelling twice is illegal.
	_, err = s.Cancel(ctx, order.ID, "again")
	require.ErrorIs(t, err, ErrInvalidTransition)

	// Delivered orders cannot be cancelled.
	delivered := newTestOrder(t, s, uuid.New())
	courierID := uuid.New()
	_, err = s.Claim(ctx, delivered.ID, courierID)
	require.NoError(t, err)
	for i := 0; i < 6; i++ {
		_, err = s.Advance(ctx, delivered.ID, courierID)
		require.NoError(t, err)
	}
	_, err = s.Cancel(ctx, delivered.ID, "too late")
	require.ErrorIs(t, err, ErrInvalidTransition)

	// Any intermediate status is cancellable.
	midway := newTestOrder(t, s, uuid.New())
	_, err = s.Claim(ctx, midway.ID, courierID)
	require.NoError(t, err)
	_, err = s.Advance(ctx, midway.ID, courierID)
	require.NoError(t, err)
	_, err = s.Cancel(ctx, midway.ID, "")
	require.NoError(t, err)
}

func TestRepriceRecomputesTotals(t *testing.T) {
	s := NewOrderStore(initTestDB(t))
	ctx := context.Background()

	order := &models.Order{
		UserID:      uuid.New(),
		Kind:        models.OrderKindCustom,
		DeliveryFee: 20,
		Items: []models.OrderItem{
			{ProductName: "طلب خاص من صيدلية مصر", Quantity: 2, UnitPrice: 0, CustomDetails: "بانادول"},
		},
	}
	require.NoError(t, s.Create(ctx, order))
	require.Equal(t, 0.0, order.Subtotal)

	repriced, err := s.Reprice(ctx, order.ID, map[uuid.UUID]string{
		order.Items[0].ID: "55.5",
	})
	require.NoError(t, err)
	require.Equal(t, 111.0, repriced.Subtotal)
	require.Equal(t, 131.0, repriced.Total)
	require.Equal(t, 55.5, repriced.Items[0].UnitPrice)

	// Repricing leaves the status history alone.
	loaded, err := s.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, loaded.StatusHistory, 1)
}

func TestRepriceIsStrict(t *testing.T) {
	s := NewOrderStore(initTestDB(t))
	ctx := context.Background()

	order := &models.Order{
		UserID: uuid.New(),
		Kind:   models.OrderKindCustom,
		Items: []models.OrderItem{
			{ProductName: "a", Quantity: 1, UnitPrice: 10},
			{ProductName: "b", Quantity: 1, UnitPrice: 20},
		},
	}
	require.NoError(t, s.Create(ctx, order))

	// One malformed entry rejects the whole operation and nothing changes.
	_, err := s.Reprice(ctx, order.ID, map[uuid.UUID]string{
		order.Items[0].ID: "99",
		order.Items[1].ID: "",
	})
	require.ErrorIs(t, err, ErrValidation)

	loaded, err := s.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, 30.0, loaded.Subtotal)
	for _, item := range loaded.Items {
		require.Contains(t, []float64{10, 20}, item.UnitPrice)
	}

	// Negative prices are rejected too.
	_, err = s.Reprice(ctx, order.ID, map[uuid.UUID]string{order.Items[0].ID: "-5"})
	require.ErrorIs(t, err, ErrValidation)

	// Unknown item ids are reported as not found.
	_, err = s.Reprice(ctx, order.ID, map[uuid.UUID]string{uuid.New(): "5"})
	require.ErrorIs(t, err, ErrNotFound)

	// Items absent from the map keep their price.
	repriced, err := s.Reprice(ctx, order.ID, map[uuid.UUID]string{order.Items[0].ID: "15"})
	require.NoError(t, err)
	require.Equal(t, 35.0, repriced.Subtotal)
}

func TestSubmitReview(t *testing.T) {
	db := initTestDB(t)
	s := NewOrderStore(db)
	ctx := context.Background()

	courier := models.User{Name: "كابتن", Phone: "0123", Role: models.RoleCourier, IsActive: true}
	require.NoError(t, db.Create(&courier).Error)

	userID := uuid.New()
	order := newTestOrder(t, s, userID)

	// Not delivered yet.
	_, err := s.Claim(ctx, order.ID, courier.ID)
	require.NoError(t, err)
	err = s.SubmitReview(ctx, order.ID, userID, 5, 4, "ممتاز")
	require.ErrorIs(t, err, ErrInvalidTransition)

	for i := 0; i < 6; i++ {
		_, err = s.Advance(ctx, order.ID, courier.ID)
		require.NoError(t, err)
	}

	require.NoError(t, s.SubmitReview(ctx, order.ID, userID, 5, 4, "ممتاز"))

	// Only once.
	err = s.SubmitReview(ctx, order.ID, userID, 5, 4, "")
	require.ErrorIs(t, err, ErrInvalidTransition)

	var updated models.User
	require.NoError(t, db.First(&updated, "id = ?", courier.ID).Error)
	require.Equal(t, 5.0, updated.Rating)

	// Another customer's order id is invisible.
	err = s.SubmitReview(ctx, order.ID, uuid.New(), 5, 4, "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListQueries(t *testing.T) {
	s := NewOrderStore(initTestDB(t))
	ctx := context.Background()

	userID := uuid.New()
	courierID := uuid.New()

	first := newTestOrder(t, s, userID)
	newTestOrder(t, s, userID)
	newTestOrder(t, s, uuid.New())

	available, total, err := s.ListAvailable(ctx, 20, 0)
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, available, 3)

	_, err = s.Claim(ctx, first.ID, courierID)
	require.NoError(t, err)

	available, total, err = s.ListAvailable(ctx, 20, 0)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)

	mine, mineTotal, err := s.ListByCourier(ctx, courierID, true, 20, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, mineTotal)
	require.Len(t, mine, 1)

	byUser, total, err := s.ListByUser(ctx, userID, "", 20, 0)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, byUser, 2)

	confirmed, _, err := s.ListByUser(ctx, userID, lifecycle.StatusConfirmed, 20, 0)
	require.NoError(t, err)
	require.Len(t, confirmed, 1)

	all, total, err := s.ListAll(ctx, "", 20, 0)
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, all, 3)
}

func TestAppendMessage(t *testing.T) {
	s := NewOrderStore(initTestDB(t))
	ctx := context.Background()

	order := newTestOrder(t, s, uuid.New())

	msg := &models.OrderMessage{
		OrderID:    order.ID,
		SenderID:   order.UserID,
		SenderName: "أحمد",
		Role:       models.RoleCustomer,
		Text:       "فين الطلب؟",
	}
	require.NoError(t, s.AppendMessage(ctx, msg))

	loaded, err := s.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Messages, 1)

	err = s.AppendMessage(ctx, &models.OrderMessage{OrderID: order.ID, Text: ""})
	require.ErrorIs(t, err, ErrValidation)

	err = s.AppendMessage(ctx, &models.OrderMessage{OrderID: uuid.New(), Text: "hi"})
	require.ErrorIs(t, err, ErrNotFound)
}
