package orders

import (
	"context"
	"errors"
	"strings"
	"testing"

	"boutique/apperr"
	"boutique/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrders struct {
	byID    map[string]*models.Order
	deleted []string
	// records SetStatus calls in order
	statusCalls []string
}

func (f *fakeOrders) GetByID(_ context.Context, orderID string) (*models.Order, error) {
	if o, ok := f.byID[orderID]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, apperr.NotFound("Order not found")
}

func (f *fakeOrders) Insert(_ context.Context, order *models.Order) error {
	f.byID[order.OrderID] = order
	return nil
}

func (f *fakeOrders) SetStatus(_ context.Context, orderID, status string) error {
	o, ok := f.byID[orderID]
	if !ok {
		return errors.New("missing order")
	}
	o.Status = status
	f.statusCalls = append(f.statusCalls, orderID+":"+status)
	return nil
}

func (f *fakeOrders) Patch(_ context.Context, orderID string, patch OrderPatch) error {
	o, ok := f.byID[orderID]
	if !ok {
		return errors.New("missing order")
	}
	if patch.AddressID != nil {
		o.AddressID = *patch.AddressID
	}
	if patch.TotalAmount != nil {
		o.TotalAmount = *patch.TotalAmount
	}
	if patch.Notes != nil {
		o.Notes = *patch.Notes
	}
	if patch.OfferID != nil {
		o.OfferID = *patch.OfferID
	}
	return nil
}

func (f *fakeOrders) Delete(_ context.Context, orderID string) error {
	delete(f.byID, orderID)
	f.deleted = append(f.deleted, orderID)
	return nil
}

type fakeItems struct {
	byOrder map[string][]models.OrderItem
	dropped []string
}

func (f *fakeItems) ListByOrder(_ context.Context, orderID string) ([]models.OrderItem, error) {
	return f.byOrder[orderID], nil
}

func (f *fakeItems) DeleteByOrder(_ context.Context, orderID string) (int64, error) {
	n := int64(len(f.byOrder[orderID]))
	delete(f.byOrder, orderID)
	f.dropped = append(f.dropped, orderID)
	return n, nil
}

type fakePayments struct {
	byID map[string]*models.Payment
}

func (f *fakePayments) GetByID(_ context.Context, paymentID string) (*models.Payment, error) {
	if p, ok := f.byID[paymentID]; ok {
		return p, nil
	}
	return nil, apperr.NotFound("Payment not found")
}

func (f *fakePayments) SetStatus(_ context.Context, paymentID, status string) error {
	p, ok := f.byID[paymentID]
	if !ok {
		return errors.New("missing payment")
	}
	p.Status = status
	return nil
}

type fakeUsers struct {
	byID map[string]*models.UserSummary
}

func (f *fakeUsers) GetSummary(_ context.Context, userID string) (*models.UserSummary, error) {
	if u, ok := f.byID[userID]; ok {
		return u, nil
	}
	return nil, apperr.NotFound("User not found")
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type recordingMailer struct {
	sent []sentMail
	err  error
}

func (m *recordingMailer) Send(to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func newTestLifecycle() (*Lifecycle, *fakeOrders, *fakeItems, *fakePayments, *recordingMailer, *[]StatusEvent) {
	fo := &fakeOrders{byID: map[string]*models.Order{}}
	fi := &fakeItems{byOrder: map[string][]models.OrderItem{}}
	fp := &fakePayments{byID: map[string]*models.Payment{}}
	fu := &fakeUsers{byID: map[string]*models.UserSummary{
		"u1": {UserID: "u1", Name: "Asha", Email: "asha@example.com"},
	}}
	mail := &recordingMailer{}
	events := &[]StatusEvent{}
	l := &Lifecycle{
		Orders:   fo,
		Items:    fi,
		Payments: fp,
		Users:    fu,
		Mail:     mail,
		Broadcast: func(ev StatusEvent) {
			*events = append(*events, ev)
		},
	}
	return l, fo, fi, fp, mail, events
}

func TestCreateValidation(t *testing.T) {
	l, _, _, _, _, _ := newTestLifecycle()
	ctx := context.Background()

	cases := []struct {
		name string
		in   CreateInput
	}{
		{"missing user", CreateInput{AddressID: "a1", TotalAmount: 100}},
		{"missing address", CreateInput{UserID: "u1", TotalAmount: 100}},
		{"zero amount", CreateInput{UserID: "u1", AddressID: "a1"}},
		{"negative amount", CreateInput{UserID: "u1", AddressID: "a1", TotalAmount: -5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := l.Create(ctx, tc.in)
			require.Error(t, err)
			assert.Equal(t, 400, apperr.Status(err))
		})
	}
}

func TestCreateStartsPendingWithoutPayment(t *testing.T) {
	l, fo, _, _, mail, _ := newTestLifecycle()

	order, err := l.Create(context.Background(), CreateInput{
		UserID: "u1", AddressID: "a1", TotalAmount: 1500, Notes: "gift wrap",
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderPending, order.Status)
	assert.Empty(t, order.PaymentID)
	assert.True(t, strings.HasPrefix(order.OrderID, "o"))
	assert.Contains(t, fo.byID, order.OrderID)
	assert.Empty(t, mail.sent, "creation must not email anyone")
}

func TestConfirmNotFound(t *testing.T) {
	l, _, _, _, _, _ := newTestLifecycle()

	_, err := l.Confirm(context.Background(), "o-missing")
	require.Error(t, err)
	assert.Equal(t, 404, apperr.Status(err))
}

func TestConfirmSendsEmailAndBroadcasts(t *testing.T) {
	l, fo, _, _, mail, events := newTestLifecycle()
	fo.byID["o42"] = &models.Order{OrderID: "o42", UserID: "u1", TotalAmount: 1500, Status: models.OrderPending}

	order, err := l.Confirm(context.Background(), "o42")
	require.NoError(t, err)
	assert.Equal(t, models.OrderConfirmed, order.Status)

	require.Len(t, mail.sent, 1)
	assert.Equal(t, "asha@example.com", mail.sent[0].To)
	assert.Equal(t, "Your Order #o42 is Confirmed", mail.sent[0].Subject)
	assert.Contains(t, mail.sent[0].Body, "Asha")
	assert.Contains(t, mail.sent[0].Body, "o42")
	assert.Contains(t, mail.sent[0].Body, "1500.00")

	require.Len(t, *events, 1)
	assert.Equal(t, models.OrderConfirmed, (*events)[0].Status)
	assert.Equal(t, "u1", (*events)[0].UserID)
}

func TestConfirmSurvivesMailFailure(t *testing.T) {
	l, fo, _, _, mail, _ := newTestLifecycle()
	mail.err = errors.New("smtp down")
	fo.byID["o1"] = &models.Order{OrderID: "o1", UserID: "u1", TotalAmount: 50, Status: models.OrderPending}

	order, err := l.Confirm(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderConfirmed, order.Status)
	assert.Equal(t, models.OrderConfirmed, fo.byID["o1"].Status, "status change must persist despite mail failure")
}

func TestRefundAmountBounds(t *testing.T) {
	l, fo, _, _, _, _ := newTestLifecycle()
	fo.byID["o1"] = &models.Order{OrderID: "o1", UserID: "u1", TotalAmount: 200, Status: models.OrderConfirmed}

	_, err := l.Refund(context.Background(), "o1", 0)
	require.Error(t, err)
	assert.Equal(t, 400, apperr.Status(err))

	_, err = l.Refund(context.Background(), "o1", 200.01)
	require.Error(t, err)
	assert.Equal(t, 400, apperr.Status(err))

	order, err := l.Refund(context.Background(), "o1", 200)
	require.NoError(t, err)
	assert.Equal(t, models.OrderRefunded, order.Status)
}

func TestRefundRequiresConfirmedOrder(t *testing.T) {
	l, fo, _, _, mail, _ := newTestLifecycle()
	fo.byID["o1"] = &models.Order{OrderID: "o1", UserID: "u1", TotalAmount: 200, Status: models.OrderPending}
	fo.byID["o2"] = &models.Order{OrderID: "o2", UserID: "u1", TotalAmount: 200, Status: models.OrderCancelled}

	for _, id := range []string{"o1", "o2"} {
		_, err := l.Refund(context.Background(), id, 100)
		require.Error(t, err)
		assert.Equal(t, 409, apperr.Status(err))
	}

	assert.Equal(t, models.OrderPending, fo.byID["o1"].Status)
	assert.Equal(t, models.OrderCancelled, fo.byID["o2"].Status)
	assert.Empty(t, mail.sent)
}

func TestRefundEmailMentionsAmount(t *testing.T) {
	l, fo, _, _, mail, _ := newTestLifecycle()
	fo.byID["o7"] = &models.Order{OrderID: "o7", UserID: "u1", TotalAmount: 1500, Status: models.OrderConfirmed}

	_, err := l.Refund(context.Background(), "o7", 750.50)
	require.NoError(t, err)

	require.Len(t, mail.sent, 1)
	assert.Equal(t, "Your Order #o7 has been Refunded", mail.sent[0].Subject)
	assert.Contains(t, mail.sent[0].Body, "750.50")
}

func TestUpdateOwnership(t *testing.T) {
	l, fo, _, _, _, _ := newTestLifecycle()
	fo.byID["o1"] = &models.Order{OrderID: "o1", UserID: "u1", TotalAmount: 100, Status: models.OrderPending}
	notes := "leave at door"

	_, err := l.Update(context.Background(), "o1", OrderPatch{Notes: &notes}, "someone-else", models.RoleUser)
	require.Error(t, err)
	assert.Equal(t, 403, apperr.Status(err))

	got, err := l.Update(context.Background(), "o1", OrderPatch{Notes: &notes}, "u1", models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, notes, got.Notes)

	addr := "a9"
	got, err = l.Update(context.Background(), "o1", OrderPatch{AddressID: &addr}, "admin-1", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "a9", got.AddressID)
}

func TestDeleteCascade(t *testing.T) {
	l, fo, fi, fp, _, events := newTestLifecycle()
	fo.byID["o1"] = &models.Order{OrderID: "o1", UserID: "u1", PaymentID: "p1", TotalAmount: 300, Status: models.OrderConfirmed}
	fi.byOrder["o1"] = []models.OrderItem{{OrderItemID: "oi1", OrderID: "o1"}, {OrderItemID: "oi2", OrderID: "o1"}}
	fp.byID["p1"] = &models.Payment{PaymentID: "p1", OrderID: "o1", Status: models.PaymentPaid}

	err := l.Delete(context.Background(), "o1", "u1", models.RoleUser)
	require.NoError(t, err)

	assert.Equal(t, []string{"o1"}, fi.dropped)
	assert.Equal(t, models.PaymentCancelled, fp.byID["p1"].Status)
	assert.Equal(t, []string{"o1:cancelled"}, fo.statusCalls)
	assert.Equal(t, []string{"o1"}, fo.deleted)

	require.Len(t, *events, 1)
	assert.Equal(t, models.OrderCancelled, (*events)[0].Status)
}

func TestDeleteWithoutPaymentSkipsPaymentCancel(t *testing.T) {
	l, fo, fi, fp, _, _ := newTestLifecycle()
	fo.byID["o2"] = &models.Order{OrderID: "o2", UserID: "u1", TotalAmount: 80, Status: models.OrderPending}

	err := l.Delete(context.Background(), "o2", "u1", models.RoleUser)
	require.NoError(t, err)
	assert.Empty(t, fp.byID)
	assert.Equal(t, []string{"o2"}, fi.dropped)
}

func TestDeleteForbiddenForStrangers(t *testing.T) {
	l, fo, fi, _, _, _ := newTestLifecycle()
	fo.byID["o1"] = &models.Order{OrderID: "o1", UserID: "u1", TotalAmount: 100}

	err := l.Delete(context.Background(), "o1", "u2", models.RoleUser)
	require.Error(t, err)
	assert.Equal(t, 403, apperr.Status(err))
	assert.Empty(t, fi.dropped, "cascade must not start on a forbidden delete")
	assert.Contains(t, fo.byID, "o1")
}

func TestSuperAdminCanTouchAnyOrder(t *testing.T) {
	order := &models.Order{OrderID: "o1", UserID: "u1"}
	assert.True(t, canTouchOrder(order, "u1", models.RoleUser))
	assert.False(t, canTouchOrder(order, "u2", models.RoleUser))
	assert.True(t, canTouchOrder(order, "u2", models.RoleAdmin))
	assert.True(t, canTouchOrder(order, "u2", "Super Admin"))
}
