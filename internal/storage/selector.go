package storage

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// PlaceholderMongoURI is the connection-string default. When the deployment never
// configured a real URI the durable store is non-authoritative even if something
// happens to answer on localhost.
const PlaceholderMongoURI = "mongodb://localhost:27017/assesshub"

// Selector decides, per operation, which backend is authoritative. The decision is a
// pure function of connectivity and identifier shape and is re-evaluated on every
// call: connectivity can flip at runtime and no result is cached across requests.
type Selector struct {
	durable  Backend
	fallback Backend
	probe    func(ctx context.Context) bool
}

func NewSelector(durable, fallback Backend, probe func(ctx context.Context) bool) *Selector {
	if probe == nil {
		probe = func(context.Context) bool { return false }
	}
	return &Selector{durable: durable, fallback: fallback, probe: probe}
}

// MongoProbe reports live connectivity to the durable store. A nil client or a
// placeholder connection string pins the probe to false.
func MongoProbe(client *mongo.Client, uri string) func(ctx context.Context) bool {
	if client == nil || uri == "" || uri == PlaceholderMongoURI {
		return func(context.Context) bool { return false }
	}
	return func(ctx context.Context) bool {
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return client.Ping(pctx, nil) == nil
	}
}

// DurableAuthoritative is the connectivity half of the routing decision.
func (s *Selector) DurableAuthoritative(ctx context.Context) bool {
	return s.durable != nil && s.probe(ctx)
}

// Backend picks the store for an operation touching the given ids. Any non-empty id
// that is not durable-shaped forces the fallback store regardless of connectivity;
// the two stores are not in sync and a fallback id can never resolve durably.
func (s *Selector) Backend(ctx context.Context, ids ...string) Backend {
	if !s.DurableAuthoritative(ctx) {
		return s.fallback
	}
	for _, id := range ids {
		if id != "" && !IsDurableID(id) {
			return s.fallback
		}
	}
	return s.durable
}

// Durable exposes the durable store for explicit two-stage lookups (identity
// resolution retries the fallback when a durable read misses). May be nil.
func (s *Selector) Durable() Backend { return s.durable }

func (s *Selector) Fallback() Backend { return s.fallback }
