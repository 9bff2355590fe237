package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/clock"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/config"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/invoice/domain"
	invoicerepo "github.com/syedarifiqbal/digitizing-workflow-sub000/internal/invoice/repository"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/migration"
	orderdomain "github.com/syedarifiqbal/digitizing-workflow-sub000/internal/order/domain"
	orderrepo "github.com/syedarifiqbal/digitizing-workflow-sub000/internal/order/repository"
	tenantrepo "github.com/syedarifiqbal/digitizing-workflow-sub000/internal/tenant/repository"
	tenantservice "github.com/syedarifiqbal/digitizing-workflow-sub000/internal/tenant/service"
	webhookdomain "github.com/syedarifiqbal/digitizing-workflow-sub000/internal/webhook/domain"
	webhookservice "github.com/syedarifiqbal/digitizing-workflow-sub000/internal/webhook/service"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/workflow"
)

type nullDeliverer struct{}

func (nullDeliverer) Deliver(ctx context.Context, targetURL string, payload webhookdomain.Payload) error {
	return nil
}

type invoiceTestEnv struct {
	conn     *gorm.DB
	node     *snowflake.Node
	fake     *clock.FakeClock
	invoices domain.Service
	tenantID snowflake.ID
	clientID snowflake.ID
}

func setupInvoiceTest(t *testing.T) *invoiceTestEnv {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, migration.Run(conn))

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2025, 4, 15, 10, 0, 0, 0, time.UTC))
	logger := zap.NewNop()
	defaults := config.StaticDefaults()

	tenants := tenantservice.New(tenantservice.Params{
		DB:       conn,
		Log:      logger,
		GenID:    node,
		Clock:    fake,
		Defaults: defaults,
		Repo:     tenantrepo.Provide(),
	})
	hooks := webhookservice.New(webhookservice.Params{
		DB:        conn,
		Log:       logger,
		GenID:     node,
		Clock:     fake,
		Deliverer: nullDeliverer{},
	})

	invoices := New(Params{
		DB:       conn,
		Log:      logger,
		GenID:    node,
		Clock:    fake,
		Defaults: defaults,
		Repo:     invoicerepo.Provide(),
		Orders:   orderrepo.Provide(),
		Tenants:  tenants,
		Hooks:    hooks,
	})

	return &invoiceTestEnv{
		conn:     conn,
		node:     node,
		fake:     fake,
		invoices: invoices,
		tenantID: node.Generate(),
		clientID: node.Generate(),
	}
}

// seedOrder writes an order row directly; invoicing only cares about its
// price, currency and invoiced flag.
func (env *invoiceTestEnv) seedOrder(t *testing.T, price *int64, currency string, invoiced bool) orderdomain.Order {
	t.Helper()
	id := env.node.Generate()
	order := orderdomain.Order{
		ID:          id,
		TenantID:    env.tenantID,
		OrderNumber: "ORD-" + id.String(),
		Sequence:    id.Int64(),
		ClientID:    env.clientID,
		Status:      workflow.OrderStatusDelivered,
		Priority:    orderdomain.PriorityNormal,
		Type:        orderdomain.OrderTypeDigitizing,
		Price:       price,
		Currency:    currency,
		IsInvoiced:  invoiced,
		CreatedAt:   env.fake.Now(),
		UpdatedAt:   env.fake.Now(),
	}
	require.NoError(t, env.conn.Create(&order).Error)
	return order
}

func (env *invoiceTestEnv) createInvoice(t *testing.T, orders ...orderdomain.Order) domain.Invoice {
	t.Helper()
	req := domain.CreateInvoiceRequest{ClientID: env.clientID, Currency: "USD"}
	for i := range orders {
		req.Items = append(req.Items, domain.CreateInvoiceItemRequest{OrderID: &orders[i].ID})
	}
	invoice, err := env.invoices.Create(context.Background(), env.tenantID, req)
	require.NoError(t, err)
	return invoice
}

func amount(v int64) *int64 { return &v }

func TestCreateInvoice(t *testing.T) {
	env := setupInvoiceTest(t)
	ctx := context.Background()

	first := env.seedOrder(t, amount(12000), "USD", false)
	second := env.seedOrder(t, amount(8000), "USD", false)

	invoice, err := env.invoices.Create(ctx, env.tenantID, domain.CreateInvoiceRequest{
		ClientID: env.clientID,
		Currency: "USD",
		Items: []domain.CreateInvoiceItemRequest{
			{OrderID: &first.ID},
			{OrderID: &second.ID},
			{Description: "rush fee", Amount: amount(2500)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-000001", invoice.InvoiceNumber)
	assert.Equal(t, workflow.InvoiceStatusDraft, invoice.Status)
	assert.Equal(t, int64(22500), invoice.TotalAmount)
	assert.Equal(t, int64(0), invoice.PaidAmount)
	assert.Nil(t, invoice.SentAt)

	items, err := env.invoices.Items(ctx, env.tenantID, invoice.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	// Order lines default their description to the order number.
	assert.Equal(t, first.OrderNumber, items[0].Description)
	assert.Equal(t, int64(12000), items[0].Amount)
	assert.Nil(t, items[2].OrderID)

	var reloaded orderdomain.Order
	require.NoError(t, env.conn.First(&reloaded, "id = ?", first.ID).Error)
	assert.True(t, reloaded.IsInvoiced)
}

func TestCreateInvoice_Rejections(t *testing.T) {
	env := setupInvoiceTest(t)
	ctx := context.Background()

	billed := env.seedOrder(t, amount(5000), "USD", true)
	_, err := env.invoices.Create(ctx, env.tenantID, domain.CreateInvoiceRequest{
		ClientID: env.clientID,
		Currency: "USD",
		Items:    []domain.CreateInvoiceItemRequest{{OrderID: &billed.ID}},
	})
	assert.ErrorIs(t, err, domain.ErrOrderInvoiced)

	euro := env.seedOrder(t, amount(5000), "EUR", false)
	_, err = env.invoices.Create(ctx, env.tenantID, domain.CreateInvoiceRequest{
		ClientID: env.clientID,
		Currency: "USD",
		Items:    []domain.CreateInvoiceItemRequest{{OrderID: &euro.ID}},
	})
	assert.ErrorIs(t, err, domain.ErrCurrencyMixed)

	unpriced := env.seedOrder(t, nil, "USD", false)
	_, err = env.invoices.Create(ctx, env.tenantID, domain.CreateInvoiceRequest{
		ClientID: env.clientID,
		Currency: "USD",
		Items:    []domain.CreateInvoiceItemRequest{{OrderID: &unpriced.ID}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	missing := env.node.Generate()
	_, err = env.invoices.Create(ctx, env.tenantID, domain.CreateInvoiceRequest{
		ClientID: env.clientID,
		Currency: "USD",
		Items:    []domain.CreateInvoiceItemRequest{{OrderID: &missing}},
	})
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	_, err = env.invoices.Create(ctx, env.tenantID, domain.CreateInvoiceRequest{
		ClientID: env.clientID,
		Currency: "USD",
	})
	assert.ErrorIs(t, err, domain.ErrNothingToInvoice)

	// A rejected creation leaves no half-invoiced orders behind.
	var reloaded orderdomain.Order
	require.NoError(t, env.conn.First(&reloaded, "id = ?", euro.ID).Error)
	assert.False(t, reloaded.IsInvoiced)
}

func TestTransition_SentAtStampedOnce(t *testing.T) {
	env := setupInvoiceTest(t)
	ctx := context.Background()

	order := env.seedOrder(t, amount(10000), "USD", false)
	invoice := env.createInvoice(t, order)

	sent, err := env.invoices.Transition(ctx, env.tenantID, invoice.ID, domain.TransitionRequest{
		Target: workflow.InvoiceStatusSent,
	})
	require.NoError(t, err)
	require.NotNil(t, sent.SentAt)
	sentAt := *sent.SentAt

	// Bouncing through OVERDUE and back does not restamp.
	env.fake.Advance(48 * time.Hour)
	_, err = env.invoices.Transition(ctx, env.tenantID, invoice.ID, domain.TransitionRequest{
		Target: workflow.InvoiceStatusOverdue,
	})
	require.NoError(t, err)
	reloaded, err := env.invoices.GetByID(ctx, env.tenantID, invoice.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.SentAt)
	assert.Equal(t, sentAt, *reloaded.SentAt)
}

func TestTransition_CancelledDraftNeverSent(t *testing.T) {
	env := setupInvoiceTest(t)
	ctx := context.Background()

	order := env.seedOrder(t, amount(7000), "USD", false)
	invoice := env.createInvoice(t, order)

	cancelled, err := env.invoices.Transition(ctx, env.tenantID, invoice.ID, domain.TransitionRequest{
		Target: workflow.InvoiceStatusCancelled,
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.InvoiceStatusCancelled, cancelled.Status)
	// A draft that was cancelled was never sent.
	assert.Nil(t, cancelled.SentAt)

	reloaded, err := env.invoices.GetByID(ctx, env.tenantID, invoice.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.SentAt)
}

func TestTransition_Illegal(t *testing.T) {
	env := setupInvoiceTest(t)
	ctx := context.Background()

	order := env.seedOrder(t, amount(10000), "USD", false)
	invoice := env.createInvoice(t, order)

	_, err := env.invoices.Transition(ctx, env.tenantID, invoice.ID, domain.TransitionRequest{
		Target: workflow.InvoiceStatusPaid,
	})
	var transitionErr *workflow.IllegalTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, "invoice", transitionErr.Entity)
}

func TestRecordPayment(t *testing.T) {
	env := setupInvoiceTest(t)
	ctx := context.Background()

	order := env.seedOrder(t, amount(10000), "USD", false)
	invoice := env.createInvoice(t, order)

	// Payments are not accepted on drafts.
	_, err := env.invoices.RecordPayment(ctx, env.tenantID, invoice.ID, domain.RecordPaymentRequest{
		Amount: 4000,
		Method: "wire",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPayment)

	_, err = env.invoices.Transition(ctx, env.tenantID, invoice.ID, domain.TransitionRequest{
		Target: workflow.InvoiceStatusSent,
	})
	require.NoError(t, err)

	partial, err := env.invoices.RecordPayment(ctx, env.tenantID, invoice.ID, domain.RecordPaymentRequest{
		Amount:    4000,
		Method:    "wire",
		Reference: "WIRE-1",
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.InvoiceStatusPartiallyPaid, partial.Status)
	assert.Equal(t, int64(4000), partial.PaidAmount)
	assert.Nil(t, partial.PaidAt)

	env.fake.Advance(time.Hour)
	paid, err := env.invoices.RecordPayment(ctx, env.tenantID, invoice.ID, domain.RecordPaymentRequest{
		Amount: 6000,
		Method: "wire",
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.InvoiceStatusPaid, paid.Status)
	assert.Equal(t, int64(10000), paid.PaidAmount)
	require.NotNil(t, paid.PaidAt)
	assert.Equal(t, env.fake.Now(), paid.PaidAt.UTC())

	payments, err := env.invoices.Payments(ctx, env.tenantID, invoice.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, "WIRE-1", payments[0].Reference)

	// A settled invoice takes no further money.
	_, err = env.invoices.RecordPayment(ctx, env.tenantID, invoice.ID, domain.RecordPaymentRequest{
		Amount: 100,
		Method: "wire",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPayment)

	_, err = env.invoices.RecordPayment(ctx, env.tenantID, invoice.ID, domain.RecordPaymentRequest{
		Amount: -5,
		Method: "wire",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPayment)
}

func TestTransition_PaidAtClearedOnVoid(t *testing.T) {
	env := setupInvoiceTest(t)
	ctx := context.Background()

	order := env.seedOrder(t, amount(3000), "USD", false)
	invoice := env.createInvoice(t, order)

	_, err := env.invoices.Transition(ctx, env.tenantID, invoice.ID, domain.TransitionRequest{
		Target: workflow.InvoiceStatusSent,
	})
	require.NoError(t, err)
	paid, err := env.invoices.RecordPayment(ctx, env.tenantID, invoice.ID, domain.RecordPaymentRequest{
		Amount: 3000,
		Method: "card",
	})
	require.NoError(t, err)
	require.NotNil(t, paid.PaidAt)

	voided, err := env.invoices.Transition(ctx, env.tenantID, invoice.ID, domain.TransitionRequest{
		Target: workflow.InvoiceStatusVoid,
		Note:   "charged back",
	})
	require.NoError(t, err)
	assert.Nil(t, voided.PaidAt)
}

func TestMarkOverdue(t *testing.T) {
	env := setupInvoiceTest(t)
	ctx := context.Background()

	due := env.fake.Now().Add(24 * time.Hour)

	mkInvoice := func(target *workflow.InvoiceStatus) domain.Invoice {
		order := env.seedOrder(t, amount(1000), "USD", false)
		invoice, err := env.invoices.Create(ctx, env.tenantID, domain.CreateInvoiceRequest{
			ClientID: env.clientID,
			Currency: "USD",
			DueAt:    &due,
			Items:    []domain.CreateInvoiceItemRequest{{OrderID: &order.ID}},
		})
		require.NoError(t, err)
		if target != nil {
			_, err = env.invoices.Transition(ctx, env.tenantID, invoice.ID, domain.TransitionRequest{Target: *target})
			require.NoError(t, err)
		}
		return invoice
	}

	sentStatus := workflow.InvoiceStatusSent
	sent := mkInvoice(&sentStatus)
	draft := mkInvoice(nil)
	partial := mkInvoice(&sentStatus)
	_, err := env.invoices.RecordPayment(ctx, env.tenantID, partial.ID, domain.RecordPaymentRequest{
		Amount: 400,
		Method: "wire",
	})
	require.NoError(t, err)

	// Not yet past due: nothing flips.
	count, err := env.invoices.MarkOverdue(ctx, env.fake.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	env.fake.Advance(72 * time.Hour)
	count, err = env.invoices.MarkOverdue(ctx, env.fake.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	for _, tc := range []struct {
		id   snowflake.ID
		want workflow.InvoiceStatus
	}{
		{sent.ID, workflow.InvoiceStatusOverdue},
		{partial.ID, workflow.InvoiceStatusOverdue},
		{draft.ID, workflow.InvoiceStatusDraft},
	} {
		reloaded, err := env.invoices.GetByID(ctx, env.tenantID, tc.id)
		require.NoError(t, err)
		assert.Equal(t, tc.want, reloaded.Status)
	}

	// The sweep does not flip twice.
	count, err = env.invoices.MarkOverdue(ctx, env.fake.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// An overdue invoice still accepts payment in full.
	settled, err := env.invoices.RecordPayment(ctx, env.tenantID, sent.ID, domain.RecordPaymentRequest{
		Amount: 1000,
		Method: "wire",
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.InvoiceStatusPaid, settled.Status)
}
