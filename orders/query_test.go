package orders

import (
	"net/url"
	"testing"
	"time"

	"boutique/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestParseListParams(t *testing.T) {
	q := url.Values{}
	q.Set("search", "asha")
	q.Set("status", "pending")
	q.Set("paymentStatus", "paid")
	q.Set("page", "3")
	q.Set("limit", "25")
	q.Set("startDate", "2026-01-01")
	q.Set("endDate", "2026-01-31")

	p := parseListParams(q)
	assert.Equal(t, "asha", p.Search)
	assert.Equal(t, "pending", p.Status)
	assert.Equal(t, "paid", p.PaymentStatus)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 25, p.Limit)
	assert.True(t, p.HasLimit)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), p.StartDate)
	// end date is inclusive to end of day
	assert.Equal(t, 31, p.EndDate.Day())
	assert.Equal(t, 23, p.EndDate.Hour())
}

func TestParseListParamsDefaults(t *testing.T) {
	p := parseListParams(url.Values{})
	assert.Equal(t, 1, p.Page)
	assert.False(t, p.HasLimit)
	assert.True(t, p.StartDate.IsZero())
	assert.True(t, p.EndDate.IsZero())
}

func TestBuildOrderFilterPinsUserRole(t *testing.T) {
	filter := buildOrderFilter(listParams{}, "u1", models.RoleUser, nil)
	assert.Equal(t, "u1", filter["userid"])

	filter = buildOrderFilter(listParams{}, "admin-1", models.RoleAdmin, nil)
	_, pinned := filter["userid"]
	assert.False(t, pinned, "admins see all orders")
}

func TestBuildOrderFilterSearchIncludesMatchedOwners(t *testing.T) {
	filter := buildOrderFilter(listParams{Search: "asha"}, "admin-1", models.RoleAdmin, []string{"u1", "u2"})
	or, ok := filter["$or"].([]bson.M)
	require.True(t, ok)
	assert.Len(t, or, 3)

	filter = buildOrderFilter(listParams{Search: "asha"}, "admin-1", models.RoleAdmin, nil)
	or, _ = filter["$or"].([]bson.M)
	assert.Len(t, or, 2)
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 1, totalPages(500, listParams{}))
	assert.Equal(t, 1, totalPages(0, listParams{Limit: 10, HasLimit: true}))
	assert.Equal(t, 1, totalPages(10, listParams{Limit: 10, HasLimit: true}))
	assert.Equal(t, 2, totalPages(11, listParams{Limit: 10, HasLimit: true}))
	assert.Equal(t, 5, totalPages(50, listParams{Limit: 10, HasLimit: true}))
}

func TestFilterByPaymentStatus(t *testing.T) {
	paid := &models.Payment{Status: models.PaymentPaid}
	pending := &models.Payment{Status: models.PaymentPending}
	details := []models.OrderDetail{
		{Order: models.Order{OrderID: "o1"}, Payment: paid},
		{Order: models.Order{OrderID: "o2"}, Payment: pending},
		{Order: models.Order{OrderID: "o3"}},
	}

	out := filterByPaymentStatus(details, models.PaymentPaid)
	require.Len(t, out, 1)
	assert.Equal(t, "o1", out[0].OrderID)

	assert.Len(t, filterByPaymentStatus(details, ""), 3)
}

func TestPageSliceAfterPaymentFilter(t *testing.T) {
	details := make([]models.OrderDetail, 0, 5)
	for _, id := range []string{"o1", "o2", "o3", "o4", "o5"} {
		details = append(details, models.OrderDetail{Order: models.Order{OrderID: id}})
	}

	p := listParams{Page: 1, Limit: 2, HasLimit: true}
	page := pageSlice(details, p)
	require.Len(t, page, 2)
	assert.Equal(t, "o1", page[0].OrderID)

	p.Page = 3
	page = pageSlice(details, p)
	require.Len(t, page, 1)
	assert.Equal(t, "o5", page[0].OrderID)

	p.Page = 4
	assert.Empty(t, pageSlice(details, p))

	// No limit means the whole filtered set comes back; the caller
	// reports total from that same set, never the pre-filter count.
	assert.Len(t, pageSlice(details, listParams{Page: 1}), 5)
}
