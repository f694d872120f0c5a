package orders

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"boutique/db"
	"boutique/middleware"
	"boutique/models"
	"boutique/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type listParams struct {
	Search        string
	Status        string
	PaymentStatus string
	StartDate     time.Time
	EndDate       time.Time
	Page          int
	Limit         int
	HasLimit      bool
}

func parseListParams(q url.Values) listParams {
	p := listParams{Search: q.Get("search"), Status: q.Get("status"), PaymentStatus: q.Get("paymentStatus"), Page: 1}

	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		p.Limit = v
		p.HasLimit = true
	}
	if t, err := time.Parse("2006-01-02", q.Get("startDate")); err == nil {
		p.StartDate = t
	}
	if t, err := time.Parse("2006-01-02", q.Get("endDate")); err == nil {
		// inclusive end of day
		p.EndDate = t.Add(24*time.Hour - time.Nanosecond)
	}
	return p
}

// buildOrderFilter assembles the mongo filter for a listing request.
// matchingUserIDs is the best-effort set of owners whose name or email
// matched the search text; callers with the "user" role are always
// pinned to their own orders regardless of requested filters.
func buildOrderFilter(p listParams, callerID, callerRole string, matchingUserIDs []string) bson.M {
	filter := bson.M{}

	if p.Search != "" {
		regex := bson.M{"$regex": p.Search, "$options": "i"}
		or := []bson.M{
			{"orderid": regex},
			{"userid": regex},
		}
		if len(matchingUserIDs) > 0 {
			or = append(or, bson.M{"userid": bson.M{"$in": matchingUserIDs}})
		}
		filter["$or"] = or
	}

	if p.Status != "" {
		filter["status"] = p.Status
	}

	if middleware.HasRole(callerRole, models.RoleUser) {
		filter["userid"] = callerID
	}

	if !p.StartDate.IsZero() || !p.EndDate.IsZero() {
		created := bson.M{}
		if !p.StartDate.IsZero() {
			created["$gte"] = p.StartDate
		}
		if !p.EndDate.IsZero() {
			created["$lte"] = p.EndDate
		}
		filter["created_at"] = created
	}

	return filter
}

func totalPages(total int64, p listParams) int {
	if !p.HasLimit || p.Limit <= 0 {
		return 1
	}
	pages := total / int64(p.Limit)
	if total%int64(p.Limit) != 0 {
		pages++
	}
	if pages == 0 {
		pages = 1
	}
	return int(pages)
}

// filterByPaymentStatus drops orders whose payment record is absent or
// in a different state. Applied after the fetch because payment status
// lives on a related document.
func filterByPaymentStatus(details []models.OrderDetail, status string) []models.OrderDetail {
	if status == "" {
		return details
	}
	out := make([]models.OrderDetail, 0, len(details))
	for _, d := range details {
		if d.Payment != nil && d.Payment.Status == status {
			out = append(out, d)
		}
	}
	return out
}

// searchUserIDs finds owners whose name or email matches the search
// text. Failures degrade to an empty set; the listing still works on
// order fields alone.
func searchUserIDs(ctx context.Context, search string) []string {
	if search == "" {
		return nil
	}
	regex := bson.M{"$regex": search, "$options": "i"}
	users, err := utils.FindAndDecode[models.UserSummary](ctx, db.UserCollection,
		bson.M{"$or": []bson.M{{"name": regex}, {"email": regex}}},
		options.Find().SetProjection(bson.M{"userid": 1}).SetLimit(200))
	if err != nil {
		return nil
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.UserID)
	}
	return ids
}

// populate loads the owner summary, items and payment for each order.
func (l *Lifecycle) populate(ctx context.Context, order *models.Order) models.OrderDetail {
	detail := models.OrderDetail{Order: *order}

	if user, err := l.Users.GetSummary(ctx, order.UserID); err == nil {
		detail.User = user
	}
	if items, err := l.Items.ListByOrder(ctx, order.OrderID); err == nil {
		detail.Items = items
	}
	if detail.Items == nil {
		detail.Items = []models.OrderItem{}
	}
	if order.PaymentID != "" {
		if payment, err := l.Payments.GetByID(ctx, order.PaymentID); err == nil {
			detail.Payment = payment
		}
	}
	return detail
}

// pageSlice applies pagination to an already filtered result set.
func pageSlice(details []models.OrderDetail, p listParams) []models.OrderDetail {
	if !p.HasLimit {
		return details
	}
	start := (p.Page - 1) * p.Limit
	if start >= len(details) {
		return []models.OrderDetail{}
	}
	end := start + p.Limit
	if end > len(details) {
		end = len(details)
	}
	return details[start:end]
}

// List runs a filtered, paginated listing. Sort is fixed newest-first.
// A paymentStatus filter lives on the related payment document, so that
// case fetches the full match set and paginates after the post-filter;
// total then counts exactly the rows that survive it.
func (l *Lifecycle) List(ctx context.Context, p listParams, callerID, callerRole string) ([]models.OrderDetail, int64, error) {
	filter := buildOrderFilter(p, callerID, callerRole, searchUserIDs(ctx, p.Search))

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if p.HasLimit && p.PaymentStatus == "" {
		opts.SetSkip(int64((p.Page - 1) * p.Limit)).SetLimit(int64(p.Limit))
	}

	raw, err := utils.FindAndDecode[models.Order](ctx, db.OrderCollection, filter, opts)
	if err != nil {
		return nil, 0, err
	}

	details := make([]models.OrderDetail, 0, len(raw))
	for i := range raw {
		details = append(details, l.populate(ctx, &raw[i]))
	}

	if p.PaymentStatus != "" {
		details = filterByPaymentStatus(details, p.PaymentStatus)
		total := int64(len(details))
		return pageSlice(details, p), total, nil
	}

	total, err := db.OrderCollection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return details, total, nil
}
