package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReader hands out msgs, then blocks until ctx is done. It calls done
// once `want` offsets have been committed.
type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []int64
	want      int
	done      func()
	closed    bool
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.msgs) > 0 {
		m := r.msgs[0]
		r.msgs = r.msgs[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	if len(r.committed) == r.want && r.done != nil {
		r.done()
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func TestConsumerRetriesFailedMessageBeforeCommittingLaterOffsets(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	r := &fakeReader{
		msgs: []kafka.Message{{Partition: 0, Offset: 10}, {Partition: 0, Offset: 11}},
		want: 2,
		done: cancel,
	}
	c := newConsumer(r, 4, zerolog.Nop())
	c.backoff = time.Millisecond

	var (
		mu      sync.Mutex
		handled []int64
		fails   = 2
	)
	err := c.Start(ctx, func(_ context.Context, m kafka.Message) error {
		mu.Lock()
		defer mu.Unlock()
		handled = append(handled, m.Offset)
		if m.Offset == 10 && fails > 0 {
			fails--
			return errors.New("smtp unavailable")
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []int64{10, 10, 10, 11}, handled)
	assert.Equal(t, []int64{10, 11}, r.commits())
	assert.True(t, r.closed)
}

func TestConsumerDoesNotCommitWhenStoppedMidRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := &fakeReader{msgs: []kafka.Message{{Partition: 0, Offset: 3}, {Partition: 0, Offset: 4}}}
	c := newConsumer(r, 1, zerolog.Nop())
	c.backoff = time.Millisecond

	attempts := 0
	err := c.Start(ctx, func(_ context.Context, m kafka.Message) error {
		if m.Offset == 3 {
			if attempts++; attempts == 3 {
				cancel()
			}
			return errors.New("still failing")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, r.commits())
}

func TestConsumerKeepsPartitionsApart(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	r := &fakeReader{
		msgs: []kafka.Message{
			{Partition: 0, Offset: 1},
			{Partition: 1, Offset: 1},
			{Partition: 0, Offset: 2},
			{Partition: 1, Offset: 2},
		},
		want: 4,
		done: cancel,
	}
	c := newConsumer(r, 2, zerolog.Nop())

	var (
		mu   sync.Mutex
		seen = map[int][]int64{}
	)
	require.NoError(t, c.Start(ctx, func(_ context.Context, m kafka.Message) error {
		mu.Lock()
		defer mu.Unlock()
		seen[m.Partition] = append(seen[m.Partition], m.Offset)
		return nil
	}))
	assert.Equal(t, map[int][]int64{0: {1, 2}, 1: {1, 2}}, seen)
	assert.Len(t, r.commits(), 4)
}
