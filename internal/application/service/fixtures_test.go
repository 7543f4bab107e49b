package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/quickbill-api/internal/domain/entity"
	"github.com/sangkips/quickbill-api/internal/infrastructure/database"
	"github.com/sangkips/quickbill-api/internal/infrastructure/repository"
	"github.com/sangkips/quickbill-api/pkg/email"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, msg *email.Message) error {
	return m.Called(ctx, msg).Error(0)
}

type mockRenderer struct {
	mock.Mock
}

func (m *mockRenderer) Render(doc *entity.InvoiceDocument) ([]byte, error) {
	args := m.Called(doc)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

type harness struct {
	db        *gorm.DB
	sender    *mockSender
	renderer  *mockRenderer
	clients   *ClientService
	invoices  *InvoiceService
	estimates *EstimateService
	dashboard *DashboardService
	user      *entity.User
	client    *entity.Client
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := database.OpenInMemory(uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	invoiceRepo := repository.NewInvoiceRepository(db)
	clientRepo := repository.NewClientRepository(db)
	userRepo := repository.NewUserRepository(db)
	estimateRepo := repository.NewEstimateRepository(db)

	h := &harness{
		db:       db,
		sender:   &mockSender{},
		renderer: &mockRenderer{},
		clients:  NewClientService(clientRepo),
	}
	clock := func() time.Time { return testNow }
	h.invoices = NewInvoiceService(invoiceRepo, clientRepo, userRepo, h.sender, h.renderer,
		WithDispatchTimeout(time.Second), WithClock(clock))
	h.estimates = NewEstimateService(estimateRepo, invoiceRepo, clientRepo, userRepo, h.sender, time.Second)
	h.estimates.now = clock
	h.dashboard = NewDashboardService(repository.NewAnalyticsRepository(db))
	h.dashboard.now = clock

	company := "Lovelace Analytics"
	h.user = &entity.User{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.test", Provider: "local", CompanyName: &company}
	require.NoError(t, userRepo.Create(context.Background(), h.user))

	h.client, err = h.clients.CreateClient(context.Background(), &ClientInput{
		UserID: h.user.ID,
		Name:   "Babbage Engines",
		Email:  "accounts@babbage.test",
	})
	require.NoError(t, err)

	return h
}

// otherClient registers a second user and returns a client that user owns
func (h *harness) otherClient(t *testing.T) *entity.Client {
	t.Helper()
	ctx := context.Background()

	other := &entity.User{FirstName: "Charles", LastName: "Babbage", Email: "charles@example.test", Provider: "local"}
	require.NoError(t, repository.NewUserRepository(h.db).Create(ctx, other))

	client, err := h.clients.CreateClient(ctx, &ClientInput{
		UserID: other.ID,
		Name:   "Difference Engines",
		Email:  "billing@difference.test",
	})
	require.NoError(t, err)
	return client
}

func line(desc, qty, price, tax string) entity.LineItem {
	return entity.LineItem{
		Description: desc,
		Quantity:    decimal.RequireFromString(qty),
		UnitPrice:   decimal.RequireFromString(price),
		TaxRate:     decimal.RequireFromString(tax),
	}
}

func (h *harness) createInvoice(t *testing.T, due time.Time, items ...entity.LineItem) *entity.Invoice {
	t.Helper()
	if len(items) == 0 {
		items = []entity.LineItem{line("Design", "2", "50", "10")}
	}
	inv, err := h.invoices.CreateInvoice(context.Background(), &CreateInvoiceInput{
		UserID:    h.user.ID,
		ClientID:  h.client.ID,
		IssueDate: due.AddDate(0, 0, -30),
		DueDate:   due,
		Items:     items,
	})
	require.NoError(t, err)
	return inv
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}
