package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/bradykim7/bookscraper/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const (
	runsCollection    = "crawl_runs"
	recordsCollection = "records"
	connectTimeout    = 10 * time.Second
)

// MongoDB stores crawl runs in MongoDB: one document per run in crawl_runs
// and one document per record in records.
type MongoDB struct {
	client *mongo.Client
	db     *mongo.Database
	log    *zap.Logger
}

// NewMongoDB connects to MongoDB and makes sure the indexes exist.
func NewMongoDB(ctx context.Context, uri, dbName string, log *zap.Logger) (*MongoDB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	logger := log.Named("mongodb")

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Info("Connected to MongoDB", zap.String("database", dbName))

	m := &MongoDB{
		client: client,
		db:     client.Database(dbName),
		log:    logger,
	}

	if err := m.setupIndices(ctx); err != nil {
		logger.Warn("Failed to set up database indices", zap.Error(err))
	}

	return m, nil
}

// setupIndices ensures the indexes used for reading runs back exist
func (m *MongoDB) setupIndices(ctx context.Context) error {
	// One record per (run, position)
	_, err := m.Collection(recordsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "run_id", Value: 1}, {Key: "seq", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create run index on records: %w", err)
	}

	_, err = m.Collection(runsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "started_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create started_at index on crawl_runs: %w", err)
	}

	return nil
}

// SaveRun inserts the run document and all of its records.
func (m *MongoDB) SaveRun(ctx context.Context, run *models.CrawlRun) error {
	if _, err := m.Collection(runsCollection).InsertOne(ctx, runDocument(run)); err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}

	if run.Result.Len() == 0 {
		return nil
	}

	docs := make([]interface{}, 0, run.Result.Len())
	for i, record := range run.Result.Records {
		docs = append(docs, recordDocument(run.ID, i, record))
	}

	// Ordered insert keeps seq order and stops at the first failure.
	if _, err := m.Collection(recordsCollection).InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		return fmt.Errorf("failed to insert records for run %s: %w", run.ID, err)
	}

	m.log.Info("Saved crawl run",
		zap.String("run_id", run.ID),
		zap.Int("records", run.Result.Len()))
	return nil
}

// Close closes the MongoDB connection
func (m *MongoDB) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	m.log.Info("Closing MongoDB connection")
	return m.client.Disconnect(ctx)
}

// Collection returns a MongoDB collection
func (m *MongoDB) Collection(name string) *mongo.Collection {
	return m.db.Collection(name)
}

func runDocument(run *models.CrawlRun) bson.D {
	doc := bson.D{
		{Key: "_id", Value: run.ID},
		{Key: "source", Value: run.Source},
		{Key: "seed_url", Value: run.SeedURL},
		{Key: "started_at", Value: run.StartedAt},
		{Key: "finished_at", Value: run.FinishedAt},
		{Key: "pages", Value: run.Pages},
		{Key: "records", Value: run.Result.Len()},
		{Key: "status", Value: string(run.Status)},
	}
	if run.Error != "" {
		doc = append(doc, bson.E{Key: "error", Value: run.Error})
	}
	return doc
}

// recordDocument keeps field order; null fields are stored as BSON null.
func recordDocument(runID string, seq int, record models.Record) bson.D {
	fields := make(bson.D, 0, record.Len())
	for _, f := range record.Fields() {
		var value interface{}
		if f.Value != nil {
			value = *f.Value
		}
		fields = append(fields, bson.E{Key: f.Name, Value: value})
	}

	return bson.D{
		{Key: "run_id", Value: runID},
		{Key: "seq", Value: seq},
		{Key: "fields", Value: fields},
	}
}
