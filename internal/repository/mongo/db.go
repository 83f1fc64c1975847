package mongo

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// ConnectDB establishes a connection to MongoDB using the provided URI.
// It returns the mongo.Client which can be used to access databases and collections.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	// The initial connection might succeed while the server is unresponsive.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}

	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes of every collection used by the repositories.
// Failures are logged and do not stop the server.
func EnsureIndexes(ctx context.Context, db *mongo.Database) {
	ensure := map[string][]mongo.IndexModel{
		userCollectionName:         userIndexes(),
		invitationCollectionName:   invitationIndexes(),
		notificationCollectionName: notificationIndexes(),
		exerciseCollectionName:     exerciseIndexes(),
		routineCollectionName:      routineIndexes(),
	}
	for name, indexes := range ensure {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			logrus.WithError(err).WithField("collection", name).Warn("failed to create indexes")
			continue
		}
		logrus.WithField("collection", name).Debug("indexes ensured")
	}
}
