package broker

import "context"

// Pool ограничивает число одновременных блокирующих вызовов хранилища,
// чтобы они не задерживали сокетные циклы: каждый вызов занимает слот
// и отпускает его по завершении.
type Pool struct {
	slots chan struct{}
}

// NewPool создаёт пул на size слотов
func NewPool(size int) *Pool {
	if size <= 0 {
		size = 1
	}

	return &Pool{slots: make(chan struct{}, size)}
}

// Do выполняет fn, заняв слот пула. Ожидание слота прерывается контекстом.
func (p *Pool) Do(ctx context.Context, fn func() error) error {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-p.slots }()

	return fn()
}
