package repository_test

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodrv "go.mongodb.org/mongo-driver/mongo"

	"github.com/Vannakem2021/ecommerce-last-sub003/internal/entity"
	"github.com/Vannakem2021/ecommerce-last-sub003/pkg/mongo"
	"github.com/Vannakem2021/ecommerce-last-sub003/pkg/postgres"
)

var (
	testDB     *pgxpool.Pool
	testDBOnce sync.Once

	testMongo     *mongodrv.Database
	testMongoOnce sync.Once
)

func setupTestDatabase(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN is not set")
	}

	testDBOnce.Do(func() {
		require.NoError(t, postgres.UpMigrations(dsn))

		db, err := postgres.ConnectToPostgres(context.Background(), dsn, 4)
		require.NoError(t, err)

		testDB = db
	})

	require.NotNil(t, testDB)

	return testDB
}

func setupTestMongo(t *testing.T) *mongodrv.Database {
	t.Helper()

	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI is not set")
	}

	testMongoOnce.Do(func() {
		_, db, err := mongo.Connect(context.Background(), uri, "payway_test")
		require.NoError(t, err)

		testMongo = db
	})

	require.NotNil(t, testMongo)

	return testMongo
}

func insertPostgresOrder(t *testing.T, db *pgxpool.Pool, o entity.Order) {
	t.Helper()

	items, err := json.Marshal(o.Items)
	require.NoError(t, err)

	customer, err := json.Marshal(o.Customer)
	require.NoError(t, err)

	var ref *string
	if o.ABA.MerchantRefNo != "" {
		ref = &o.ABA.MerchantRefNo
	}

	_, err = db.Exec(context.Background(),
		`INSERT INTO orders (id, user_id, total_price, currency, payment_method, is_paid,
			items, customer, aba_merchant_ref_no, aba_callback_received, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`,
		o.ID, o.UserID, o.TotalPrice, o.Currency, o.PaymentMethod, o.IsPaid,
		items, customer, ref, o.ABA.CallbackReceived, o.CreatedAt,
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = db.Exec(context.Background(), `DELETE FROM orders WHERE id = $1`, o.ID)
	})
}

func insertMongoOrder(t *testing.T, db *mongodrv.Database, o entity.Order) {
	t.Helper()

	oid, err := primitive.ObjectIDFromHex(o.ID)
	require.NoError(t, err)

	total, err := primitive.ParseDecimal128(o.TotalPrice.String())
	require.NoError(t, err)

	items := bson.A{}

	for _, it := range o.Items {
		price, err := primitive.ParseDecimal128(it.Price.String())
		require.NoError(t, err)

		items = append(items, bson.M{"name": it.Name, "quantity": it.Quantity, "price": price})
	}

	doc := bson.M{
		"_id":           oid,
		"userId":        o.UserID.String(),
		"totalPrice":    total,
		"currency":      o.Currency,
		"paymentMethod": o.PaymentMethod,
		"isPaid":        o.IsPaid,
		"orderItems":    items,
		"customer": bson.M{
			"firstName": o.Customer.FirstName,
			"lastName":  o.Customer.LastName,
			"email":     o.Customer.Email,
			"phone":     o.Customer.Phone,
		},
		"abaCallbackReceived": o.ABA.CallbackReceived,
		"createdAt":           o.CreatedAt,
		"updatedAt":           o.CreatedAt,
	}

	if o.ABA.MerchantRefNo != "" {
		doc["abaMerchantRefNo"] = o.ABA.MerchantRefNo
	}

	coll := db.Collection("orders")

	_, err = coll.InsertOne(context.Background(), doc)
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = coll.DeleteOne(context.Background(), bson.M{"_id": oid})
	})
}
