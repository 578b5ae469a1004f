// Package mongo reads Nightscout collections straight from MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bnema/nightscout-tidepool-sync/internal/domain"
	"github.com/bnema/nightscout-tidepool-sync/internal/ports"
	"go.mongodb.org/mongo-driver/bson"
	driver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	CollectionEntries    = "entries"
	CollectionTreatments = "treatments"
	CollectionProfile    = "profile"

	entryTypeSGV = "sgv"

	defaultQueryTimeout = 30 * time.Second
	startDateLayout     = "2006-01-02T15:04:05.000Z"
)

var ErrDatabaseRequired = errors.New("mongo database name is required")

// Store implements ports.SourceStore over a Nightscout database.
type Store struct {
	client       *driver.Client
	database     *driver.Database
	QueryTimeout time.Duration
}

var _ ports.SourceStore = (*Store)(nil)

// Open connects to uri and verifies the connection. An empty database falls
// back to the database named in the URI path.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, errors.New("mongo uri is required")
	}
	if database == "" {
		database = databaseFromURI(uri)
	}
	if database == "" {
		return nil, ErrDatabaseRequired
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(4).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(10 * time.Second)

	client, err := driver.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Store{client: client, database: client.Database(database)}, nil
}

func (s *Store) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongo: %w", err)
	}
	return nil
}

// ListEntries returns sensor glucose entries only. Meter and calibration
// entries have no target record.
func (s *Store) ListEntries(ctx context.Context, count int) ([]domain.RawRecord, error) {
	return s.find(ctx, CollectionEntries, entriesFilter(),
		options.Find().SetSort(bson.D{{Key: "date", Value: -1}}).SetLimit(int64(count)))
}

func entriesFilter() bson.D {
	return bson.D{{Key: "type", Value: entryTypeSGV}}
}

func (s *Store) ListTreatments(ctx context.Context, count int) ([]domain.RawRecord, error) {
	return s.find(ctx, CollectionTreatments, bson.D{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(count)))
}

// ListProfiles returns profiles started at or after since, newest first,
// followed by the profile that was already in effect at since.
func (s *Store) ListProfiles(ctx context.Context, since time.Time) ([]domain.RawRecord, error) {
	bound := since.UTC().Format(startDateLayout)

	profiles, err := s.find(ctx, CollectionProfile,
		bson.D{{Key: "startDate", Value: bson.D{{Key: "$gte", Value: bound}}}},
		options.Find().SetSort(bson.D{{Key: "startDate", Value: -1}}))
	if err != nil {
		return nil, err
	}

	previous, err := s.find(ctx, CollectionProfile,
		bson.D{{Key: "startDate", Value: bson.D{{Key: "$lt", Value: bound}}}},
		options.Find().SetSort(bson.D{{Key: "startDate", Value: -1}}).SetLimit(1))
	if err != nil {
		return nil, err
	}

	return append(profiles, previous...), nil
}

func (s *Store) find(ctx context.Context, collection string, filter bson.D, opts *options.FindOptions) ([]domain.RawRecord, error) {
	queryCtx, cancel := s.queryContext(ctx)
	defer cancel()

	cursor, err := s.database.Collection(collection).Find(queryCtx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	defer func() { _ = cursor.Close(context.Background()) }()

	var docs []bson.M
	if err := cursor.All(queryCtx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}

	records := make([]domain.RawRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, ToRawRecord(collection, doc))
	}
	return records, nil
}

func (s *Store) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	timeout := s.QueryTimeout
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

func databaseFromURI(uri string) string {
	parsed, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	return strings.Trim(parsed.Path, "/")
}
