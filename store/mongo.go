package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"event-registration/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoPayments stores payment orders in the "payments" collection
type MongoPayments struct {
	Collection *mongo.Collection
}

// MongoRegistrations stores registrations in the "registrations" collection
type MongoRegistrations struct {
	Collection *mongo.Collection
}

// NewMongoStores opens both collections on db
func NewMongoStores(client *mongo.Client, db string) (*MongoPayments, *MongoRegistrations) {
	database := client.Database(db)
	return &MongoPayments{Collection: database.Collection("payments")},
		&MongoRegistrations{Collection: database.Collection("registrations")}
}

// EnsureIndexes creates the uniqueness and lookup indexes both collections rely on
func EnsureIndexes(ctx context.Context, payments *MongoPayments, regs *MongoRegistrations) error {
	_, err := payments.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "order_id", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"order_id": bson.M{"$type": "string"}}),
		},
		{Keys: bson.D{{Key: "receipt", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "payment_id", Value: 1}}},
		{Keys: bson.D{{Key: "email", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("payment indexes: %w", err)
	}
	_, err = regs.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "aadhar_no", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "order_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("registration indexes: %w", err)
	}
	return nil
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func (s *MongoPayments) Create(ctx context.Context, order *models.PaymentOrder) error {
	now := time.Now().UTC()
	order.CreatedAt, order.UpdatedAt = now, now
	if order.Status == "" {
		order.Status = models.PaymentStatusCreated
	}
	res, err := s.Collection.InsertOne(ctx, order)
	if err != nil {
		return mapErr(err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		order.ID = id
	}
	return nil
}

func (s *MongoPayments) AttachGatewayOrder(ctx context.Context, receipt, orderID string) error {
	res, err := s.Collection.UpdateOne(ctx, bson.M{"receipt": receipt}, bson.M{
		"$set": bson.M{"order_id": orderID, "updated_at": time.Now().UTC()},
	})
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoPayments) MarkFailed(ctx context.Context, receipt string) error {
	_, err := s.Collection.UpdateOne(ctx,
		bson.M{"receipt": receipt, "status": models.PaymentStatusCreated},
		bson.M{"$set": bson.M{"status": models.PaymentStatusFailed, "updated_at": time.Now().UTC()}},
	)
	return mapErr(err)
}

func (s *MongoPayments) FindByOrderID(ctx context.Context, orderID string) (*models.PaymentOrder, error) {
	var order models.PaymentOrder
	if err := s.Collection.FindOne(ctx, bson.M{"order_id": orderID}).Decode(&order); err != nil {
		return nil, mapErr(err)
	}
	return &order, nil
}

func (s *MongoPayments) MarkPaid(ctx context.Context, orderID, paymentID, signature string, registrationID primitive.ObjectID) (bool, error) {
	res, err := s.Collection.UpdateOne(ctx,
		bson.M{"order_id": orderID, "status": models.PaymentStatusCreated},
		bson.M{"$set": bson.M{
			"status":          models.PaymentStatusPaid,
			"payment_id":      paymentID,
			"signature":       signature,
			"registration_id": registrationID,
			"updated_at":      time.Now().UTC(),
		}},
	)
	if err != nil {
		return false, mapErr(err)
	}
	return res.ModifiedCount == 1, nil
}

func (s *MongoPayments) ListByStatus(ctx context.Context, status string) ([]models.PaymentOrder, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	cursor, err := s.Collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := []models.PaymentOrder{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *MongoRegistrations) Create(ctx context.Context, reg *models.Registration) error {
	res, err := s.Collection.InsertOne(ctx, reg)
	if err != nil {
		return mapErr(err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		reg.ID = id
	}
	return nil
}

func (s *MongoRegistrations) findOne(ctx context.Context, filter bson.M) (*models.Registration, error) {
	var reg models.Registration
	if err := s.Collection.FindOne(ctx, filter).Decode(&reg); err != nil {
		return nil, mapErr(err)
	}
	return &reg, nil
}

func (s *MongoRegistrations) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Registration, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *MongoRegistrations) FindByAadhar(ctx context.Context, aadharNo string) (*models.Registration, error) {
	return s.findOne(ctx, bson.M{"aadhar_no": aadharNo})
}

func (s *MongoRegistrations) FindByOrderID(ctx context.Context, orderID string) (*models.Registration, error) {
	return s.findOne(ctx, bson.M{"order_id": orderID})
}

func (s *MongoRegistrations) AttachDocument(ctx context.Context, id primitive.ObjectID, url string) error {
	res, err := s.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"document_url": url, "document_pending": false, "updated_at": time.Now().UTC()},
	})
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoRegistrations) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.Collection.DeleteOne(ctx, bson.M{"_id": id})
	return mapErr(err)
}

func (s *MongoRegistrations) List(ctx context.Context) ([]models.Registration, error) {
	cursor, err := s.Collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	regs := []models.Registration{}
	for cursor.Next(ctx) {
		var reg models.Registration
		if err := cursor.Decode(&reg); err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, cursor.Err()
}
