package broker

import (
	"context"
	"testing"
	"time"

	"tradecopier/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalQueueOrder(t *testing.T) {
	ctx := context.Background()
	q := NewSignalQueue(10)

	first := &models.Signal{Event: models.Ping{SourceIDStr: "S1"}}
	second := &models.Signal{Event: models.Ping{SourceIDStr: "S2"}}

	require.NoError(t, q.Put(ctx, first))
	require.NoError(t, q.Put(ctx, second))
	assert.Equal(t, 2, q.Len())

	got, err := q.Get(ctx)
	require.NoError(t, err)
	assert.Same(t, first, got)

	got, err = q.Get(ctx)
	require.NoError(t, err)
	assert.Same(t, second, got)
}

// Заполненная очередь должна блокировать Put до освобождения места
func TestSignalQueueBackpressure(t *testing.T) {
	ctx := context.Background()
	q := NewSignalQueue(2)

	require.NoError(t, q.Put(ctx, &models.Signal{Event: models.Ping{}}))
	require.NoError(t, q.Put(ctx, &models.Signal{Event: models.Ping{}}))

	// очередь полна: Put с дедлайном должен упереться в контекст
	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	err := q.Put(short, &models.Signal{Event: models.Ping{}})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// после освобождения места Put проходит
	_, err = q.Get(ctx)
	require.NoError(t, err)
	require.NoError(t, q.Put(ctx, &models.Signal{Event: models.Ping{}}))
}

func TestSignalQueueGetCancelled(t *testing.T) {
	q := NewSignalQueue(1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := q.Get(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAlertQueueFIFO(t *testing.T) {
	ctx := context.Background()
	q := NewAlertQueue()

	q.Put("first")
	q.Put("second")
	q.Put("third")
	assert.Equal(t, 3, q.Len())

	for _, want := range []string{"first", "second", "third"} {
		got, err := q.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	assert.Equal(t, 0, q.Len())
}

// Put не должен блокироваться независимо от числа ожидающих сообщений
func TestAlertQueueUnbounded(t *testing.T) {
	q := NewAlertQueue()

	for i := 0; i < 10000; i++ {
		q.Put("alert")
	}

	assert.Equal(t, 10000, q.Len())
}

func TestAlertQueueWakesWaiter(t *testing.T) {
	q := NewAlertQueue()

	done := make(chan string, 1)
	go func() {
		msg, err := q.Get(context.Background())
		if err == nil {
			done <- msg
		}
	}()

	time.Sleep(20 * time.Millisecond)
	q.Put("wake up")

	select {
	case msg := <-done:
		assert.Equal(t, "wake up", msg)
	case <-time.After(time.Second):
		t.Fatal("Get did not wake up after Put")
	}
}

func TestPoolLimitsConcurrency(t *testing.T) {
	ctx := context.Background()
	p := NewPool(2)

	started := make(chan struct{}, 2)
	release := make(chan struct{})

	for i := 0; i < 2; i++ {
		go p.Do(ctx, func() error {
			started <- struct{}{}
			<-release
			return nil
		})
	}

	<-started
	<-started

	// оба слота заняты: третий вызов должен ждать
	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	err := p.Do(short, func() error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
}
