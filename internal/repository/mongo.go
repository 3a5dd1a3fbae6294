package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Vannakem2021/ecommerce-last-sub003/internal/entity"
)

const ordersCollection = "orders"

// MongoRepository stores orders in the storefront's document collection.
type MongoRepository struct {
	orders *mongo.Collection
}

func NewMongo(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		orders: db.Collection(ordersCollection),
	}
}

type orderDocument struct {
	ID                  primitive.ObjectID     `bson:"_id"`
	UserID              string                 `bson:"userId"`
	TotalPrice          primitive.Decimal128   `bson:"totalPrice"`
	Currency            string                 `bson:"currency"`
	PaymentMethod       string                 `bson:"paymentMethod"`
	IsPaid              bool                   `bson:"isPaid"`
	PaidAt              *time.Time             `bson:"paidAt,omitempty"`
	PaymentResult       *paymentResultDocument `bson:"paymentResult,omitempty"`
	Items               []orderItemDocument    `bson:"orderItems"`
	Customer            customerDocument       `bson:"customer"`
	ABAMerchantRefNo    string                 `bson:"abaMerchantRefNo,omitempty"`
	ABATransactionID    string                 `bson:"abaTransactionId,omitempty"`
	ABAPaymentStatus    string                 `bson:"abaPaymentStatus,omitempty"`
	ABAStatusCode       int                    `bson:"abaStatusCode,omitempty"`
	ABALastStatusCheck  *time.Time             `bson:"abaLastStatusCheck,omitempty"`
	ABACallbackReceived bool                   `bson:"abaCallbackReceived"`
	ABAStatusHistory    []historyDocument      `bson:"abaStatusHistory,omitempty"`
	CreatedAt           time.Time              `bson:"createdAt"`
	UpdatedAt           time.Time              `bson:"updatedAt"`
}

type orderItemDocument struct {
	Name     string               `bson:"name"`
	Quantity int                  `bson:"quantity"`
	Price    primitive.Decimal128 `bson:"price"`
}

type customerDocument struct {
	FirstName string `bson:"firstName"`
	LastName  string `bson:"lastName"`
	Email     string `bson:"email"`
	Phone     string `bson:"phone"`
}

type paymentResultDocument struct {
	ID           string               `bson:"id"`
	Status       string               `bson:"status"`
	UpdateTime   time.Time            `bson:"updateTime"`
	Amount       primitive.Decimal128 `bson:"amount"`
	ApprovalCode string               `bson:"approvalCode,omitempty"`
	Provider     string               `bson:"provider"`
}

type historyDocument struct {
	Status     string    `bson:"status"`
	StatusCode int       `bson:"statusCode"`
	Timestamp  time.Time `bson:"timestamp"`
	Source     string    `bson:"source"`
	Details    string    `bson:"details"`
}

func (r *MongoRepository) Order(ctx context.Context, id string) (entity.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return entity.Order{}, entity.ErrNotFound
	}

	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoRepository) OrderByMerchantRef(ctx context.Context, merchantRefNo string) (entity.Order, error) {
	return r.findOne(ctx, bson.M{"abaMerchantRefNo": merchantRefNo})
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (entity.Order, error) {
	var doc orderDocument

	err := r.orders.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return entity.Order{}, entity.ErrNotFound
		}

		return entity.Order{}, err
	}

	return doc.toEntity()
}

func (r *MongoRepository) SetMerchantRefNo(ctx context.Context, orderID, ref string, updatedAt time.Time) (string, error) {
	oid, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return "", entity.ErrNotFound
	}

	filter := bson.M{
		"_id": oid,
		"$or": bson.A{
			bson.M{"abaMerchantRefNo": bson.M{"$exists": false}},
			bson.M{"abaMerchantRefNo": ""},
			bson.M{"abaMerchantRefNo": nil},
		},
	}
	update := bson.M{"$set": bson.M{"abaMerchantRefNo": ref, "updatedAt": updatedAt}}

	var doc orderDocument

	err = r.orders.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err == nil {
		return doc.ABAMerchantRefNo, nil
	}

	if !errors.Is(err, mongo.ErrNoDocuments) {
		return "", err
	}

	// Someone else set it first.
	err = r.orders.FindOne(ctx, bson.M{"_id": oid},
		options.FindOne().SetProjection(bson.M{"abaMerchantRefNo": 1})).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", entity.ErrNotFound
		}

		return "", err
	}

	return doc.ABAMerchantRefNo, nil
}

func (r *MongoRepository) MarkOrderPaid(ctx context.Context, paid entity.PaidOrder) error {
	oid, err := primitive.ObjectIDFromHex(paid.OrderID)
	if err != nil {
		return entity.ErrNotFound
	}

	result, err := paymentResultFromEntity(paid.Result)
	if err != nil {
		return err
	}

	res, err := r.orders.UpdateOne(ctx,
		bson.M{"_id": oid, "isPaid": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{
			"isPaid":        true,
			"paidAt":        paid.PaidAt,
			"paymentResult": result,
			"updatedAt":     paid.PaidAt,
		}},
	)
	if err != nil {
		return err
	}

	if res.MatchedCount == 0 {
		return r.unpaidMiss(ctx, oid)
	}

	return nil
}

func (r *MongoRepository) SetPaymentResult(ctx context.Context, orderID string, result entity.PaymentResult) error {
	oid, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return entity.ErrNotFound
	}

	doc, err := paymentResultFromEntity(result)
	if err != nil {
		return err
	}

	res, err := r.orders.UpdateOne(ctx,
		bson.M{"_id": oid, "isPaid": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{"paymentResult": doc, "updatedAt": result.UpdateTime}},
	)
	if err != nil {
		return err
	}

	if res.MatchedCount == 0 {
		return r.unpaidMiss(ctx, oid)
	}

	return nil
}

func (r *MongoRepository) unpaidMiss(ctx context.Context, oid primitive.ObjectID) error {
	n, err := r.orders.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}

	if n == 0 {
		return entity.ErrNotFound
	}

	return entity.ErrAlreadyPaid
}

func (r *MongoRepository) RecordProviderStatus(ctx context.Context, u entity.ProviderStatusUpdate) error {
	oid, err := primitive.ObjectIDFromHex(u.OrderID)
	if err != nil {
		return entity.ErrNotFound
	}

	set := bson.M{"updatedAt": u.Entry.Timestamp}

	if !u.HistoryOnly {
		set["abaPaymentStatus"] = u.Entry.Status
		set["abaStatusCode"] = u.Entry.StatusCode
	}

	if u.TransactionID != "" {
		set["abaTransactionId"] = u.TransactionID
	}

	if u.CallbackReceived {
		set["abaCallbackReceived"] = true
	}

	if u.CheckedAt != nil {
		set["abaLastStatusCheck"] = *u.CheckedAt
	}

	res, err := r.orders.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": set,
		"$push": bson.M{"abaStatusHistory": historyDocument{
			Status:     u.Entry.Status,
			StatusCode: u.Entry.StatusCode,
			Timestamp:  u.Entry.Timestamp,
			Source:     string(u.Entry.Source),
			Details:    u.Entry.Details,
		}},
	})
	if err != nil {
		return err
	}

	if res.MatchedCount == 0 {
		return entity.ErrNotFound
	}

	return nil
}

func (r *MongoRepository) OrdersAwaitingPayment(ctx context.Context, f entity.PendingFilter) ([]entity.Order, error) {
	filter := bson.M{
		"paymentMethod":       f.PaymentMethod,
		"isPaid":              bson.M{"$ne": true},
		"abaCallbackReceived": bson.M{"$ne": true},
		"abaMerchantRefNo":    bson.M{"$exists": true, "$nin": bson.A{"", nil}},
		"createdAt":           bson.M{"$gte": f.CreatedAfter, "$lt": f.CreatedBefore},
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetProjection(bson.M{"abaStatusHistory": 0})

	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}

	cur, err := r.orders.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	var docs []orderDocument

	err = cur.All(ctx, &docs)
	if err != nil {
		return nil, err
	}

	orders := make([]entity.Order, 0, len(docs))

	for _, d := range docs {
		o, err := d.toEntity()
		if err != nil {
			return nil, err
		}

		orders = append(orders, o)
	}

	return orders, nil
}

func (d orderDocument) toEntity() (entity.Order, error) {
	total, err := fromDecimal128(d.TotalPrice)
	if err != nil {
		return entity.Order{}, fmt.Errorf("order %s total: %w", d.ID.Hex(), err)
	}

	// Orders placed by guests or legacy users may carry a non-UUID user id.
	userID, _ := uuid.FromString(d.UserID)

	o := entity.Order{
		ID:            d.ID.Hex(),
		UserID:        userID,
		TotalPrice:    total,
		Currency:      d.Currency,
		PaymentMethod: d.PaymentMethod,
		IsPaid:        d.IsPaid,
		PaidAt:        d.PaidAt,
		Customer:      entity.CustomerInfo(d.Customer),
		ABA: entity.ABAPayment{
			MerchantRefNo:    d.ABAMerchantRefNo,
			TransactionID:    d.ABATransactionID,
			Status:           d.ABAPaymentStatus,
			StatusCode:       d.ABAStatusCode,
			LastCheckedAt:    d.ABALastStatusCheck,
			CallbackReceived: d.ABACallbackReceived,
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}

	for _, it := range d.Items {
		price, err := fromDecimal128(it.Price)
		if err != nil {
			return entity.Order{}, fmt.Errorf("order %s item price: %w", o.ID, err)
		}

		o.Items = append(o.Items, entity.OrderItem{Name: it.Name, Quantity: it.Quantity, Price: price})
	}

	if d.PaymentResult != nil {
		amount, err := fromDecimal128(d.PaymentResult.Amount)
		if err != nil {
			return entity.Order{}, fmt.Errorf("order %s payment amount: %w", o.ID, err)
		}

		o.PaymentResult = &entity.PaymentResult{
			ID:           d.PaymentResult.ID,
			Status:       entity.PaymentResultStatus(d.PaymentResult.Status),
			UpdateTime:   d.PaymentResult.UpdateTime,
			Amount:       amount,
			ApprovalCode: d.PaymentResult.ApprovalCode,
			Provider:     d.PaymentResult.Provider,
		}
	}

	for _, h := range d.ABAStatusHistory {
		o.ABA.StatusHistory = append(o.ABA.StatusHistory, entity.StatusHistoryEntry{
			Status:     h.Status,
			StatusCode: h.StatusCode,
			Timestamp:  h.Timestamp,
			Source:     entity.HistorySource(h.Source),
			Details:    h.Details,
		})
	}

	return o, nil
}

func paymentResultFromEntity(r entity.PaymentResult) (paymentResultDocument, error) {
	amount, err := toDecimal128(r.Amount)
	if err != nil {
		return paymentResultDocument{}, err
	}

	return paymentResultDocument{
		ID:           r.ID,
		Status:       string(r.Status),
		UpdateTime:   r.UpdateTime,
		Amount:       amount,
		ApprovalCode: r.ApprovalCode,
		Provider:     r.Provider,
	}, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("convert %s to decimal128: %w", d, err)
	}

	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	if v == (primitive.Decimal128{}) {
		return decimal.Zero, nil
	}

	return decimal.NewFromString(v.String())
}
