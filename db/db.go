package db

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	UserCollection      *mongo.Collection
	AddressCollection   *mongo.Collection
	CategoryCollection  *mongo.Collection
	ProductCollection   *mongo.Collection
	OrderCollection     *mongo.Collection
	OrderItemCollection *mongo.Collection
	PaymentCollection   *mongo.Collection
	CarouselCollection  *mongo.Collection
	Client              *mongo.Client
)

// Initialize MongoDB connection
func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	clientOptions := options.Client().ApplyURI(uri)
	var err error
	Client, err = mongo.Connect(context.TODO(), clientOptions)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	database := Client.Database("boutiquedb")
	UserCollection = database.Collection("users")
	AddressCollection = database.Collection("addresses")
	CategoryCollection = database.Collection("categories")
	ProductCollection = database.Collection("products")
	OrderCollection = database.Collection("orders")
	OrderItemCollection = database.Collection("orderitems")
	PaymentCollection = database.Collection("payments")
	CarouselCollection = database.Collection("carousel")
}
