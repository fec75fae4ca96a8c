package relay

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/fekuna/omnipos-storefront/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	pending  []model.OutboxRecord
	sent     []string
	attempts map[string]int
	fetchErr error
}

func (r *fakeRepo) Insert(_ context.Context, rec *model.OutboxRecord) error {
	r.pending = append(r.pending, *rec)
	return nil
}

func (r *fakeRepo) FetchPending(_ context.Context, limit int) ([]model.OutboxRecord, error) {
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	var out []model.OutboxRecord
	for _, rec := range r.pending {
		if contains(r.sent, rec.ID) {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *fakeRepo) MarkSent(_ context.Context, id string) error {
	r.sent = append(r.sent, id)
	return nil
}

func (r *fakeRepo) BumpAttempts(_ context.Context, id string) error {
	r.attempts[id]++
	return nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type published struct {
	topic, key string
	value      []byte
}

type fakePublisher struct {
	out    []published
	failOn map[string]bool
}

func (p *fakePublisher) Publish(_ context.Context, topic, key string, payload []byte) error {
	if p.failOn[key] {
		return errors.New("broker unavailable")
	}
	p.out = append(p.out, published{topic: topic, key: key, value: payload})
	return nil
}

func record(id, orderID string) model.OutboxRecord {
	return model.OutboxRecord{
		ID:        id,
		Topic:     "orders.events",
		Key:       orderID,
		EventType: model.EventOrderPaid,
		Payload:   []byte(`{"order_id":"` + orderID + `"}`),
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestFlush(t *testing.T) {
	repo := &fakeRepo{attempts: map[string]int{}}
	repo.pending = []model.OutboxRecord{record("e1", "o1"), record("e2", "o2"), record("e3", "o3")}
	pub := &fakePublisher{failOn: map[string]bool{"o2": true}}
	r := NewRelay(repo, passthroughTx{}, pub, 0, 0, logger.NewNop())

	sent, err := r.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, []string{"e1", "e3"}, repo.sent)
	assert.Equal(t, 1, repo.attempts["e2"])

	require.Len(t, pub.out, 2)
	assert.Equal(t, "orders.events", pub.out[0].topic)
	assert.Equal(t, "o1", pub.out[0].key)

	pub.failOn = nil
	sent, err = r.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []string{"e1", "e3", "e2"}, repo.sent)
}

func TestFlush_BatchLimit(t *testing.T) {
	repo := &fakeRepo{attempts: map[string]int{}}
	for _, id := range []string{"a", "b", "c"} {
		repo.pending = append(repo.pending, record(id, "o-"+id))
	}
	r := NewRelay(repo, passthroughTx{}, &fakePublisher{}, time.Second, 2, logger.NewNop())

	sent, err := r.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
}

func TestFlush_FetchError(t *testing.T) {
	boom := errors.New("connection reset")
	r := NewRelay(&fakeRepo{fetchErr: boom}, passthroughTx{}, &fakePublisher{}, 0, 0, logger.NewNop())

	_, err := r.Flush(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestEnvelope(t *testing.T) {
	raw, err := Envelope(record("e1", "o1"))
	require.NoError(t, err)

	var ev model.Event
	require.NoError(t, json.Unmarshal(raw, &ev))
	assert.Equal(t, "e1", ev.EventID)
	assert.Equal(t, model.EventOrderPaid, ev.EventType)
	assert.JSONEq(t, `{"order_id":"o1"}`, string(ev.Payload))
	assert.True(t, ev.Timestamp.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))
}

func TestStart_StopsOnCancel(t *testing.T) {
	repo := &fakeRepo{attempts: map[string]int{}}
	r := NewRelay(repo, passthroughTx{}, &fakePublisher{}, time.Millisecond, 10, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}
