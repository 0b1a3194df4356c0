package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/assess-hub/assesshub-backend/internal/apperr"
	"github.com/assess-hub/assesshub-backend/internal/model"
)

func TestIsDurableID(t *testing.T) {
	assert.True(t, IsDurableID(primitive.NewObjectID().Hex()))
	assert.True(t, IsDurableID("507f1f77bcf86cd799439011"))
	assert.False(t, IsDurableID("not-an-object-id"))
	assert.False(t, IsDurableID("507f1f77bcf86cd79943901"))    // 23 chars
	assert.False(t, IsDurableID("507f1f77bcf86cd79943901g"))   // non-hex
	assert.False(t, IsDurableID("0d4ac7c6-9d57-4f41-a9a2-1f")) // uuid-ish
	assert.False(t, IsDurableID(""))
}

// a second memory store stands in for the durable side; routing only cares about
// the Backend interface and the probe.
func testSelector(connected *bool) (*Selector, *MemoryBackend, *MemoryBackend) {
	durable := NewMemoryBackend()
	fallback := NewMemoryBackend()
	sel := NewSelector(durable, fallback, func(context.Context) bool { return *connected })
	return sel, durable, fallback
}

func TestSelectorRouting(t *testing.T) {
	ctx := context.Background()
	connected := true
	sel, durable, fallback := testSelector(&connected)

	hexID := primitive.NewObjectID().Hex()

	assert.Same(t, durable, sel.Backend(ctx))
	assert.Same(t, durable, sel.Backend(ctx, hexID))
	// a fallback-shaped id forces the fallback store even while connected
	assert.Same(t, fallback, sel.Backend(ctx, hexID, "uuid-shaped-id"))

	connected = false
	assert.Same(t, fallback, sel.Backend(ctx, hexID))
}

func TestSelectorReevaluatesPerCall(t *testing.T) {
	ctx := context.Background()
	connected := false
	sel, durable, fallback := testSelector(&connected)

	assert.Same(t, fallback, sel.Backend(ctx))
	connected = true
	assert.Same(t, durable, sel.Backend(ctx), "no caching across calls")
	connected = false
	assert.Same(t, fallback, sel.Backend(ctx))
}

func TestSelectorNilDurable(t *testing.T) {
	ctx := context.Background()
	fallback := NewMemoryBackend()
	sel := NewSelector(nil, fallback, func(context.Context) bool { return true })
	assert.False(t, sel.DurableAuthoritative(ctx))
	assert.Same(t, fallback, sel.Backend(ctx))
}

// With the durable store unreachable, a write lands in the fallback store and is
// readable through the same routing decision within the outage window. After
// reconnecting, durable reads do not see the record: the stores are not
// reconciled, and that divergence is the documented behavior.
func TestSelectorBackendFlipMidSequence(t *testing.T) {
	ctx := context.Background()
	connected := false
	sel, durable, _ := testSelector(&connected)

	b := sel.Backend(ctx)
	sub := model.Submission{
		ID: b.NewID(), ExamID: "e1", StudentID: "s1",
		Type: model.SubmissionMCQ, Status: model.StatusEvaluated, CreatedAt: time.Now(),
	}
	require.NoError(t, b.CreateSubmission(ctx, sub))

	got, err := sel.Backend(ctx, sub.ID).GetSubmission(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, got.ID)

	// connectivity returns; the fallback-shaped id still routes to the fallback
	connected = true
	got, err = sel.Backend(ctx, sub.ID).GetSubmission(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, got.ID)

	// but the durable store never saw the write
	_, err = durable.GetSubmission(ctx, sub.ID)
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestMongoProbePinnedFalse(t *testing.T) {
	ctx := context.Background()
	assert.False(t, MongoProbe(nil, "mongodb://real:27017/x")(ctx))
	assert.False(t, MongoProbe(nil, PlaceholderMongoURI)(ctx))
	assert.False(t, MongoProbe(nil, "")(ctx))
}
