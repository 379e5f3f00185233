package service_test

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/AshikurRahmanMunna/intertools-server/internal/domain/models"
	"github.com/AshikurRahmanMunna/intertools-server/internal/service"
	"github.com/AshikurRahmanMunna/intertools-server/internal/storage"
	"github.com/AshikurRahmanMunna/intertools-server/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v82"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeToolStorage держит один инструмент в памяти и отслеживает
// списания и возвраты остатка.
type fakeToolStorage struct {
	tool     *models.Tool
	reserved int
	released int
}

func (f *fakeToolStorage) ListTools(ctx context.Context) ([]*models.Tool, error) {
	return []*models.Tool{f.tool}, nil
}

func (f *fakeToolStorage) ListToolsLimited(ctx context.Context, limit int) ([]*models.Tool, error) {
	return []*models.Tool{f.tool}, nil
}

func (f *fakeToolStorage) GetToolByID(ctx context.Context, id int64) (*models.Tool, error) {
	if f.tool == nil || f.tool.ID != id {
		return nil, storage.ErrToolNotFound
	}
	return f.tool, nil
}

func (f *fakeToolStorage) GetToolByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Tool, error) {
	return f.GetToolByID(ctx, id)
}

func (f *fakeToolStorage) CreateTool(ctx context.Context, tool *models.Tool) (*models.Tool, error) {
	f.tool = tool
	return tool, nil
}

func (f *fakeToolStorage) DeleteTool(ctx context.Context, id int64) error {
	f.tool = nil
	return nil
}

func (f *fakeToolStorage) ReserveQuantity(ctx context.Context, tx *sql.Tx, id int64, qty int) error {
	if f.tool == nil || f.tool.ID != id {
		return storage.ErrToolNotFound
	}
	if f.tool.AvailableQuantity < qty {
		return storage.ErrInsufficientQuantity
	}
	f.tool.AvailableQuantity -= qty
	f.reserved += qty
	return nil
}

func (f *fakeToolStorage) ReleaseQuantity(ctx context.Context, tx *sql.Tx, id int64, qty int) error {
	if f.tool == nil || f.tool.ID != id {
		return storage.ErrToolNotFound
	}
	f.tool.AvailableQuantity += qty
	f.released += qty
	return nil
}

// fakeOrderStorage держит заказы в памяти.
type fakeOrderStorage struct {
	orders map[int64]*models.Order
	nextID int64
}

func newFakeOrderStorage() *fakeOrderStorage {
	return &fakeOrderStorage{orders: make(map[int64]*models.Order), nextID: 1}
}

func (f *fakeOrderStorage) CreateOrder(ctx context.Context, tx *sql.Tx, order *models.Order) (int64, error) {
	id := f.nextID
	f.nextID++
	stored := *order
	stored.ID = id
	f.orders[id] = &stored
	return id, nil
}

func (f *fakeOrderStorage) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, storage.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (f *fakeOrderStorage) LockOrderByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Order, error) {
	return f.GetOrderByID(ctx, id)
}

func (f *fakeOrderStorage) ListOrders(ctx context.Context) ([]*models.Order, error) {
	var orders []*models.Order
	for _, order := range f.orders {
		copied := *order
		orders = append(orders, &copied)
	}
	return orders, nil
}

func (f *fakeOrderStorage) GetOrdersByEmail(ctx context.Context, email string) ([]*models.Order, error) {
	var orders []*models.Order
	for _, order := range f.orders {
		if order.Email == email {
			copied := *order
			orders = append(orders, &copied)
		}
	}
	return orders, nil
}

func (f *fakeOrderStorage) UpdateOrderQuantity(ctx context.Context, tx *sql.Tx, id int64, quantity int, totalPrice float64) error {
	order, ok := f.orders[id]
	if !ok {
		return storage.ErrOrderNotFound
	}
	order.Quantity = quantity
	order.TotalPrice = totalPrice
	return nil
}

func (f *fakeOrderStorage) MarkOrderPaid(ctx context.Context, tx *sql.Tx, id int64, transactionID string) error {
	order, ok := f.orders[id]
	if !ok {
		return storage.ErrOrderNotFound
	}
	order.IsPaid = true
	order.TransactionID = &transactionID
	return nil
}

func (f *fakeOrderStorage) DeleteOrder(ctx context.Context, tx *sql.Tx, id int64) error {
	if _, ok := f.orders[id]; !ok {
		return storage.ErrOrderNotFound
	}
	delete(f.orders, id)
	return nil
}

// fakePaymentStorage считает записи об оплате.
type fakePaymentStorage struct {
	payments []string
}

func (f *fakePaymentStorage) CreatePayment(ctx context.Context, tx *sql.Tx, orderID int64, transactionID string) error {
	f.payments = append(f.payments, transactionID)
	return nil
}

// fakePublisher записывает ключи опубликованных событий.
type fakePublisher struct {
	keys []string
}

func (f *fakePublisher) Publish(ctx context.Context, key string, event interface{}) error {
	f.keys = append(f.keys, key)
	return nil
}

func TestPlaceOrder_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	toolRepo := &fakeToolStorage{tool: &models.Tool{ID: 1, Name: "Drill", Price: 120.5, AvailableQuantity: 10, MinOrderQuantity: 2}}
	orderRepo := newFakeOrderStorage()
	paymentRepo := &fakePaymentStorage{}
	publisher := &fakePublisher{}

	svc := service.NewOrderService(testLogger(), db, toolRepo, orderRepo, paymentRepo, publisher)

	order, err := svc.PlaceOrder(context.Background(), "user@example.com", 1, 3)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), order.ID)
	assert.Equal(t, 3, order.Quantity)
	assert.Equal(t, 120.5*3, order.TotalPrice, "Total price is computed server-side from catalog price")
	assert.Equal(t, 7, toolRepo.tool.AvailableQuantity, "Stock should be decremented by ordered quantity")
	assert.Equal(t, []string{"order.created"}, publisher.keys)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrder_InsufficientQuantity(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	toolRepo := &fakeToolStorage{tool: &models.Tool{ID: 1, Name: "Drill", Price: 120.5, AvailableQuantity: 2, MinOrderQuantity: 0}}
	orderRepo := newFakeOrderStorage()

	svc := service.NewOrderService(testLogger(), db, toolRepo, orderRepo, &fakePaymentStorage{}, nil)

	order, err := svc.PlaceOrder(context.Background(), "user@example.com", 1, 5)
	assert.ErrorIs(t, err, storage.ErrInsufficientQuantity)
	assert.Nil(t, order)
	assert.Empty(t, orderRepo.orders, "No order should be created when reservation fails")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrder_BelowMinimumQuantity(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	toolRepo := &fakeToolStorage{tool: &models.Tool{ID: 1, Name: "Drill", Price: 120.5, AvailableQuantity: 10, MinOrderQuantity: 5}}

	svc := service.NewOrderService(testLogger(), db, toolRepo, newFakeOrderStorage(), &fakePaymentStorage{}, nil)

	_, err = svc.PlaceOrder(context.Background(), "user@example.com", 1, 3)
	assert.ErrorIs(t, err, service.ErrBelowMinimumQuantity)
	assert.Equal(t, 10, toolRepo.tool.AvailableQuantity, "Stock should not change when order is rejected")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeQuantity_Increase(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	toolRepo := &fakeToolStorage{tool: &models.Tool{ID: 1, Name: "Drill", Price: 100, AvailableQuantity: 10, MinOrderQuantity: 0}}
	orderRepo := newFakeOrderStorage()
	orderRepo.orders[1] = &models.Order{ID: 1, Email: "user@example.com", ToolID: 1, Quantity: 3, TotalPrice: 300}

	svc := service.NewOrderService(testLogger(), db, toolRepo, orderRepo, &fakePaymentStorage{}, nil)

	order, err := svc.ChangeQuantity(context.Background(), 1, 5)
	assert.NoError(t, err)
	assert.Equal(t, 5, order.Quantity)
	assert.Equal(t, float64(500), order.TotalPrice)
	assert.Equal(t, 2, toolRepo.reserved, "Only the delta should be reserved")
	assert.Equal(t, 8, toolRepo.tool.AvailableQuantity)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeQuantity_Decrease(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	toolRepo := &fakeToolStorage{tool: &models.Tool{ID: 1, Name: "Drill", Price: 100, AvailableQuantity: 5, MinOrderQuantity: 0}}
	orderRepo := newFakeOrderStorage()
	orderRepo.orders[1] = &models.Order{ID: 1, Email: "user@example.com", ToolID: 1, Quantity: 4, TotalPrice: 400}

	svc := service.NewOrderService(testLogger(), db, toolRepo, orderRepo, &fakePaymentStorage{}, nil)

	order, err := svc.ChangeQuantity(context.Background(), 1, 2)
	assert.NoError(t, err)
	assert.Equal(t, 2, order.Quantity)
	assert.Equal(t, 2, toolRepo.released, "The freed quantity should go back to stock")
	assert.Equal(t, 7, toolRepo.tool.AvailableQuantity)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeQuantity_PaidOrderRejected(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	toolRepo := &fakeToolStorage{tool: &models.Tool{ID: 1, Name: "Drill", Price: 100, AvailableQuantity: 5}}
	orderRepo := newFakeOrderStorage()
	orderRepo.orders[1] = &models.Order{ID: 1, Email: "user@example.com", ToolID: 1, Quantity: 4, IsPaid: true}

	svc := service.NewOrderService(testLogger(), db, toolRepo, orderRepo, &fakePaymentStorage{}, nil)

	_, err = svc.ChangeQuantity(context.Background(), 1, 2)
	assert.ErrorIs(t, err, service.ErrOrderAlreadyPaid)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordPayment_Twice(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectCommit()

	toolRepo := &fakeToolStorage{tool: &models.Tool{ID: 1, Name: "Drill", Price: 100, AvailableQuantity: 5}}
	orderRepo := newFakeOrderStorage()
	orderRepo.orders[1] = &models.Order{ID: 1, Email: "user@example.com", ToolID: 1, Quantity: 2}
	paymentRepo := &fakePaymentStorage{}
	publisher := &fakePublisher{}

	svc := service.NewOrderService(testLogger(), db, toolRepo, orderRepo, paymentRepo, publisher)

	assert.NoError(t, svc.RecordPayment(context.Background(), 1, "txn_1"))
	assert.NoError(t, svc.RecordPayment(context.Background(), 1, "txn_2"))

	// Повторная оплата добавляет запись, но состояние заказа стабильно
	assert.Len(t, paymentRepo.payments, 2)
	order := orderRepo.orders[1]
	assert.True(t, order.IsPaid)
	assert.Equal(t, []string{"order.paid", "order.paid"}, publisher.keys)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteOrder_UnpaidReleasesStock(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	toolRepo := &fakeToolStorage{tool: &models.Tool{ID: 1, Name: "Drill", Price: 100, AvailableQuantity: 5}}
	orderRepo := newFakeOrderStorage()
	orderRepo.orders[1] = &models.Order{ID: 1, Email: "user@example.com", ToolID: 1, Quantity: 3}
	publisher := &fakePublisher{}

	svc := service.NewOrderService(testLogger(), db, toolRepo, orderRepo, &fakePaymentStorage{}, publisher)

	assert.NoError(t, svc.DeleteOrder(context.Background(), 1))
	assert.Empty(t, orderRepo.orders)
	assert.Equal(t, 8, toolRepo.tool.AvailableQuantity, "Unpaid order returns its quantity to stock")
	assert.Equal(t, []string{"order.deleted"}, publisher.keys)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteOrder_PaidKeepsStock(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	toolRepo := &fakeToolStorage{tool: &models.Tool{ID: 1, Name: "Drill", Price: 100, AvailableQuantity: 5}}
	orderRepo := newFakeOrderStorage()
	orderRepo.orders[1] = &models.Order{ID: 1, Email: "user@example.com", ToolID: 1, Quantity: 3, IsPaid: true}

	svc := service.NewOrderService(testLogger(), db, toolRepo, orderRepo, &fakePaymentStorage{}, nil)

	assert.NoError(t, svc.DeleteOrder(context.Background(), 1))
	assert.Empty(t, orderRepo.orders)
	assert.Equal(t, 5, toolRepo.tool.AvailableQuantity, "Paid order is shipped, stock is not returned")

	assert.NoError(t, mock.ExpectationsWereMet())
}

// fakeUserStorage для тестов пользовательского сервиса.
type fakeUserStorage struct {
	users map[string]*models.User
}

func (f *fakeUserStorage) UpsertUser(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = 1
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	f.users[user.Email] = user
	return user, nil
}

func (f *fakeUserStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := f.users[email]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserStorage) ListUsers(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	for _, user := range f.users {
		users = append(users, user)
	}
	return users, nil
}

func (f *fakeUserStorage) UpdateProfile(ctx context.Context, email string, name, phone, location string) (*models.User, error) {
	user, ok := f.users[email]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	user.Name = name
	user.Phone = phone
	user.Location = location
	return user, nil
}

func (f *fakeUserStorage) SetRole(ctx context.Context, email string, role models.Role) error {
	user, ok := f.users[email]
	if !ok {
		return storage.ErrUserNotFound
	}
	user.Role = role
	return nil
}

func TestUpsertUser_IssuesVerifiableToken(t *testing.T) {
	tokens := token.NewService([]byte("testsecret"), 24*time.Hour)
	repo := &fakeUserStorage{users: make(map[string]*models.User)}

	svc := service.NewUserService(testLogger(), repo, tokens)

	user, tokenStr, err := svc.UpsertUser(context.Background(), &models.User{Email: "user@example.com", Name: "User"})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.NotEmpty(t, tokenStr)

	email, err := tokens.Verify(tokenStr)
	assert.NoError(t, err)
	assert.Equal(t, "user@example.com", email, "Issued token should carry the upserted email")
}

func TestIsAdmin_UnknownUser(t *testing.T) {
	tokens := token.NewService([]byte("testsecret"), time.Hour)
	repo := &fakeUserStorage{users: make(map[string]*models.User)}

	svc := service.NewUserService(testLogger(), repo, tokens)

	isAdmin, err := svc.IsAdmin(context.Background(), "ghost@example.com")
	assert.NoError(t, err, "Unknown email is not an error for the admin check")
	assert.False(t, isAdmin)
}

func TestMakeAdmin_Success(t *testing.T) {
	tokens := token.NewService([]byte("testsecret"), time.Hour)
	repo := &fakeUserStorage{users: map[string]*models.User{
		"user@example.com": {Email: "user@example.com", Role: models.RoleUser},
	}}

	svc := service.NewUserService(testLogger(), repo, tokens)

	assert.NoError(t, svc.MakeAdmin(context.Background(), "user@example.com"))

	isAdmin, err := svc.IsAdmin(context.Background(), "user@example.com")
	assert.NoError(t, err)
	assert.True(t, isAdmin)
}

func TestMakeAdmin_UserNotFound(t *testing.T) {
	tokens := token.NewService([]byte("testsecret"), time.Hour)
	repo := &fakeUserStorage{users: make(map[string]*models.User)}

	svc := service.NewUserService(testLogger(), repo, tokens)

	err := svc.MakeAdmin(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

// fakeIntentCreator перехватывает параметры Stripe-запроса.
type fakeIntentCreator struct {
	params *stripe.PaymentIntentParams
	err    error
}

func (f *fakeIntentCreator) New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.PaymentIntent{ClientSecret: "pi_secret_123"}, nil
}

func TestCreatePaymentIntent_AmountInMinorUnits(t *testing.T) {
	creator := &fakeIntentCreator{}
	svc := service.NewPaymentService(testLogger(), creator)

	secret, err := svc.CreatePaymentIntent(context.Background(), 120.55)
	assert.NoError(t, err)
	assert.Equal(t, "pi_secret_123", secret)

	assert.NotNil(t, creator.params)
	assert.Equal(t, int64(12055), *creator.params.Amount, "Price should be converted to cents")
	assert.Equal(t, "usd", *creator.params.Currency)

	assert.NoError(t, err)
}

func TestCreatePaymentIntent_ProviderError(t *testing.T) {
	creator := &fakeIntentCreator{err: errors.New("stripe unavailable")}
	svc := service.NewPaymentService(testLogger(), creator)

	secret, err := svc.CreatePaymentIntent(context.Background(), 50)
	assert.Error(t, err)
	assert.Empty(t, secret)
}
