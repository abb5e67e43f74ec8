package broker

import (
	"context"
	"sync"

	"tradecopier/internal/models"
)

// SignalQueue - ограниченная очередь сигналов с одним потребителем.
// Put блокируется, когда очередь заполнена: так притормаживается цикл
// приёма на ingress-порту, это и есть механизм backpressure.
type SignalQueue struct {
	ch chan *models.Signal
}

// NewSignalQueue создаёт очередь заданной ёмкости
func NewSignalQueue(capacity int) *SignalQueue {
	if capacity <= 0 {
		capacity = 1
	}

	return &SignalQueue{ch: make(chan *models.Signal, capacity)}
}

// Put кладёт сигнал в очередь, при заполнении ждёт места
func (q *SignalQueue) Put(ctx context.Context, sig *models.Signal) error {
	select {
	case q.ch <- sig:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Get забирает следующий сигнал, при пустой очереди ждёт
func (q *SignalQueue) Get(ctx context.Context) (*models.Signal, error) {
	select {
	case sig := <-q.ch:
		return sig, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len возвращает текущую глубину очереди
func (q *SignalQueue) Len() int {
	return len(q.ch)
}

// AlertQueue - неограниченная FIFO очередь текстовых оповещений.
// Брокер только пишет в неё; единственный потребитель - отправщик
// (телеграм-бот либо лог-дренаж, когда бот не настроен).
type AlertQueue struct {
	mu    sync.Mutex
	items []string
	wake  chan struct{}
}

// NewAlertQueue создаёт пустую очередь оповещений
func NewAlertQueue() *AlertQueue {
	return &AlertQueue{wake: make(chan struct{}, 1)}
}

// Put добавляет оповещение. Никогда не блокируется.
func (q *AlertQueue) Put(msg string) {
	q.mu.Lock()
	q.items = append(q.items, msg)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Get забирает следующее оповещение, при пустой очереди ждёт
func (q *AlertQueue) Get(ctx context.Context) (string, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			msg := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()

			return msg, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-q.wake:
		}
	}
}

// Len возвращает число ожидающих оповещений
func (q *AlertQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}
