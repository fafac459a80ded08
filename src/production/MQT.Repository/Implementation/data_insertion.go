package implementation

import (
	"context"
	"time"

	hardware_models "github.com/haxx668/backendmonitoring/src/production/MQT.Models/hardware"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoRawReadingArchive stores raw ingested payloads in a MongoDB collection
type MongoRawReadingArchive struct {
	coll *mongo.Collection
}

func NewMongoRawReadingArchive(coll *mongo.Collection) *MongoRawReadingArchive {
	return &MongoRawReadingArchive{coll: coll}
}

func (r *MongoRawReadingArchive) InsertOne(ctx context.Context, rd hardware_models.RawReading) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.coll.InsertOne(ctx, rd)
	return err
}

func (r *MongoRawReadingArchive) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, readpref.Primary())
}
