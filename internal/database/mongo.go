package database

import (
	"context"
	"time"

	"catalog/internal/models"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// namespaceExists is the server error code returned when creating a collection that already exists.
const namespaceExists = 48

// ConnectMongo opens a client against uri and verifies it with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "mongo connect")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "mongo ping")
	}

	zap.L().Info("connected to MongoDB")
	return client, nil
}

// ProductSchema is the $jsonSchema enforced by the products collection, so the
// store itself rejects documents missing a required field or with an unknown category.
func ProductSchema() bson.M {
	categories := make(bson.A, 0, len(models.Categories))
	for _, c := range models.Categories {
		categories = append(categories, c)
	}

	nonEmpty := bson.M{"bsonType": "string", "minLength": 1}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "description", "brand", "imageUrl", "price", "category", "createdAt", "updatedAt"},
			"properties": bson.M{
				"name":        nonEmpty,
				"description": nonEmpty,
				"brand":       nonEmpty,
				"imageUrl":    nonEmpty,
				"price":       bson.M{"bsonType": bson.A{"double", "int", "long", "decimal"}},
				"category":    bson.M{"enum": categories},
				"createdAt":   bson.M{"bsonType": "date"},
				"updatedAt":   bson.M{"bsonType": "date"},
			},
		},
	}
}

// EnsureProductCollection creates the products collection with its validator,
// or updates the validator when the collection already exists.
func EnsureProductCollection(ctx context.Context, db *mongo.Database, name string) (*mongo.Collection, error) {
	schema := ProductSchema()
	err := db.CreateCollection(ctx, name, options.CreateCollection().SetValidator(schema))
	if err != nil {
		var ce mongo.CommandError
		if !errors.As(err, &ce) || ce.Code != namespaceExists {
			return nil, errors.Wrapf(err, "create collection %s", name)
		}
		cmd := bson.D{{Key: "collMod", Value: name}, {Key: "validator", Value: schema}}
		if err := db.RunCommand(ctx, cmd).Err(); err != nil {
			return nil, errors.Wrapf(err, "update validator of %s", name)
		}
	}
	return db.Collection(name), nil
}
