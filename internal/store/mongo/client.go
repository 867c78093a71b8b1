// Package mongo stores records in a MongoDB collection.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Client wraps a connected driver client bound to one database.
type Client struct {
	*mongo.Client
	dbName string
}

type Config struct {
	URI      string // e.g. "mongodb://localhost:27017"
	Database string
	Timeout  time.Duration // Connect and ping timeout, 10s when zero
}

// Connect dials MongoDB and verifies the connection.
func Connect(cfg Config) (*Client, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo URI cannot be empty")
	}
	if cfg.Database == "" {
		return nil, errors.New("mongo database name cannot be empty")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Client{Client: client, dbName: cfg.Database}, nil
}

func (c *Client) Close(ctx context.Context) error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Disconnect(ctx)
}

func (c *Client) Database() *mongo.Database {
	return c.Client.Database(c.dbName)
}

func (c *Client) Ping(ctx context.Context) error {
	if c.Client == nil {
		return errors.New("mongo client is not initialized")
	}
	return c.Client.Ping(ctx, readpref.Primary())
}
