package orders

import (
	"context"
	"time"

	"boutique/apperr"
	"boutique/db"
	"boutique/mailer"
	"boutique/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Mongo-backed stores. Each store owns exactly one collection and maps
// mongo.ErrNoDocuments to the not-found error the lifecycle expects.

type mongoOrders struct{ coll *mongo.Collection }

func (s *mongoOrders) GetByID(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	err := s.coll.FindOne(ctx, bson.M{"orderid": orderID}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.NotFound("Order not found")
	}
	if err != nil {
		return nil, apperr.Internal("database error")
	}
	return &order, nil
}

func (s *mongoOrders) Insert(ctx context.Context, order *models.Order) error {
	_, err := s.coll.InsertOne(ctx, order)
	return err
}

func (s *mongoOrders) SetStatus(ctx context.Context, orderID, status string) error {
	_, err := s.coll.UpdateOne(ctx, bson.M{"orderid": orderID},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}})
	return err
}

func (s *mongoOrders) Patch(ctx context.Context, orderID string, patch OrderPatch) error {
	set := bson.M{"updated_at": time.Now()}
	if patch.AddressID != nil {
		set["addressid"] = *patch.AddressID
	}
	if patch.TotalAmount != nil {
		set["total_amount"] = *patch.TotalAmount
	}
	if patch.Notes != nil {
		set["notes"] = *patch.Notes
	}
	if patch.OfferID != nil {
		set["offerid"] = *patch.OfferID
	}
	_, err := s.coll.UpdateOne(ctx, bson.M{"orderid": orderID}, bson.M{"$set": set})
	return err
}

func (s *mongoOrders) Delete(ctx context.Context, orderID string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"orderid": orderID})
	return err
}

type mongoItems struct{ coll *mongo.Collection }

func (s *mongoItems) ListByOrder(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	cursor, err := s.coll.Find(ctx, bson.M{"orderid": orderID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []models.OrderItem
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *mongoItems) DeleteByOrder(ctx context.Context, orderID string) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"orderid": orderID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

type mongoPayments struct{ coll *mongo.Collection }

func (s *mongoPayments) GetByID(ctx context.Context, paymentID string) (*models.Payment, error) {
	var payment models.Payment
	err := s.coll.FindOne(ctx, bson.M{"paymentid": paymentID}).Decode(&payment)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.NotFound("Payment not found")
	}
	if err != nil {
		return nil, apperr.Internal("database error")
	}
	return &payment, nil
}

func (s *mongoPayments) SetStatus(ctx context.Context, paymentID, status string) error {
	_, err := s.coll.UpdateOne(ctx, bson.M{"paymentid": paymentID},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}})
	return err
}

type mongoUsers struct{ coll *mongo.Collection }

func (s *mongoUsers) GetSummary(ctx context.Context, userID string) (*models.UserSummary, error) {
	var user models.UserSummary
	err := s.coll.FindOne(ctx, bson.M{"userid": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Internal("database error")
	}
	return &user, nil
}

// NewLifecycle wires the lifecycle against the live collections.
func NewLifecycle(mail mailer.Mailer, broadcast func(StatusEvent)) *Lifecycle {
	return &Lifecycle{
		Orders:    &mongoOrders{coll: db.OrderCollection},
		Items:     &mongoItems{coll: db.OrderItemCollection},
		Payments:  &mongoPayments{coll: db.PaymentCollection},
		Users:     &mongoUsers{coll: db.UserCollection},
		Mail:      mail,
		Broadcast: broadcast,
	}
}
