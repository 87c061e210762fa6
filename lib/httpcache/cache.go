package httpcache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	_ "embed"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lib/httpcache")

//go:embed schema.sql
var Schema string

var ErrNotFound = errors.New("response not found in cache")

// Entry is one cached response body.
type Entry struct {
	Url       string
	Method    string
	Status    int
	Body      []byte
	CreatedAt time.Time
}

// Cache is a persistent response cache keyed by method, url and
// request body. A zero TTL means entries never expire. It is safe for
// a single process only, there is no cross-process locking.
type Cache struct {
	db  *sql.DB
	ttl time.Duration

	now func() time.Time
}

func New(db *sql.DB, ttl time.Duration) *Cache {
	return &Cache{
		db:  db,
		ttl: ttl,
		now: time.Now,
	}
}

// Key derives the cache key from the request triple. The body is
// hashed so large payloads don't blow up the primary key.
func Key(method, url string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(url))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Cache) Get(ctx context.Context, key string) (Entry, error) {
	ctx, span := tracer.Start(ctx, "cache:Get")
	defer span.End()
	span.SetAttributes(attribute.String("cache_key", key))

	row := c.db.QueryRowContext(
		ctx,
		`SELECT url, method, status, body, created_at FROM responses WHERE key = ?`,
		key,
	)

	var entry Entry
	var createdAt int64
	err := row.Scan(&entry.Url, &entry.Method, &entry.Status, &entry.Body, &createdAt)
	if err == sql.ErrNoRows {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read cached response")
		return Entry{}, err
	}
	entry.CreatedAt = time.Unix(createdAt, 0)

	if c.ttl > 0 && c.now().Sub(entry.CreatedAt) > c.ttl {
		span.AddEvent("cache entry expired")
		return Entry{}, ErrNotFound
	}

	span.SetStatus(codes.Ok, "CACHE HIT")
	return entry, nil
}

func (c *Cache) Put(ctx context.Context, key string, entry Entry) error {
	ctx, span := tracer.Start(ctx, "cache:Put")
	defer span.End()
	span.SetAttributes(attribute.String("cache_key", key))

	_, err := c.db.ExecContext(
		ctx,
		`INSERT INTO responses (key, url, method, status, body, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET
		   status = excluded.status,
		   body = excluded.body,
		   created_at = excluded.created_at`,
		key, entry.Url, entry.Method, entry.Status, entry.Body, c.now().Unix(),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write cached response")
	}
	return err
}
