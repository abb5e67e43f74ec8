package broker

import (
	"bufio"
	"context"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const subscriberWriteTimeout = 5 * time.Second

// PublishedSignal - опубликованная пара (топик, тело) для мониторинга
type PublishedSignal struct {
	Topic string `json:"topic"`
	Body  []byte `json:"body"`
}

// topicCarrier реализуют мастер-события: их source_id_str - топик публикации
type topicCarrier interface {
	SourceTopic() string
}

// subscriber - одно подписчик-соединение pub/sub порта.
// Каждая присланная подписчиком строка - подписка на топик (сравнение
// по префиксу, как в классическом pub/sub); пустая строка - подписка
// на всё. Подписчик, не приславший ни одной строки, получает всё.
type subscriber struct {
	id     string
	conn   net.Conn
	mu     sync.Mutex
	topics []string
	all    bool
}

func (s *subscriber) wants(topic string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.all || len(s.topics) == 0 {
		return true
	}
	for _, t := range s.topics {
		if strings.HasPrefix(topic, t) {
			return true
		}
	}

	return false
}

func (s *subscriber) subscribe(topic string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if topic == "" {
		s.all = true
		return
	}
	s.topics = append(s.topics, topic)
}

// runSubscriptionListener принимает подписчиков на pub/sub порту
func (b *Broker) runSubscriptionListener(ctx context.Context) {
	b.acceptLoop(ctx, b.publishLn, b.serveSubscriber)
}

func (b *Broker) serveSubscriber(ctx context.Context, conn net.Conn) {
	sub := &subscriber{
		id:   uuid.New().String(),
		conn: conn,
	}

	b.subsMu.Lock()
	b.subs[sub.id] = sub
	b.subsMu.Unlock()

	b.logger.Info("➕ Subscriber connected",
		slog.String("id", sub.id),
		slog.String("remote", conn.RemoteAddr().String()))

	// читаем строки подписки до закрытия соединения;
	// закрытие или ошибка чтения снимает подписчика с раздачи
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		sub.subscribe(strings.TrimSpace(scanner.Text()))
	}

	b.removeSubscriber(sub.id)
	conn.Close()

	b.logger.Info("➖ Subscriber disconnected", slog.String("id", sub.id))
}

func (b *Broker) removeSubscriber(id string) {
	b.subsMu.Lock()
	delete(b.subs, id)
	b.subsMu.Unlock()
}

func (b *Broker) closeSubscribers() {
	b.subsMu.Lock()
	defer b.subsMu.Unlock()

	for id, sub := range b.subs {
		sub.conn.Close()
		delete(b.subs, id)
	}
}

// runPublisher - единственный потребитель очереди публикации.
// Сообщение уходит двумя фреймами: строка топика, затем исходное
// JSON-тело без перекодирования. Доставка fire-and-forget: без
// подтверждений и ретраев, опоздавший подписчик прошлого не получит.
func (b *Broker) runPublisher(ctx context.Context) {
	b.logger.Info("📣 Signal publisher started")

	for {
		sig, err := b.publish.Get(ctx)
		if err != nil {
			return
		}

		topic := ""
		if tc, ok := sig.Event.(topicCarrier); ok {
			topic = tc.SourceTopic()
		}
		if topic == "" {
			// без топика публиковать нечего - сообщение отбрасывается
			b.logger.Warn("Signal has no source_id_str to use as topic",
				slog.String("payload", string(sig.Raw)))
			continue
		}

		frame := make([]byte, 0, len(topic)+len(sig.Raw)+2)
		frame = append(frame, topic...)
		frame = append(frame, '\n')
		frame = append(frame, sig.Raw...)
		frame = append(frame, '\n')

		b.broadcast(topic, frame)
		b.notifyMonitors(PublishedSignal{Topic: topic, Body: sig.Raw})

		b.logger.Debug("Signal published",
			slog.String("topic", topic),
			slog.Int("subscribers", b.subscriberCount()))
	}
}

func (b *Broker) broadcast(topic string, frame []byte) {
	b.subsMu.RLock()
	targets := make([]*subscriber, 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.wants(topic) {
			targets = append(targets, sub)
		}
	}
	b.subsMu.RUnlock()

	for _, sub := range targets {
		sub.conn.SetWriteDeadline(time.Now().Add(subscriberWriteTimeout))
		if _, err := sub.conn.Write(frame); err != nil {
			b.logger.Warn("Dropping dead subscriber",
				slog.String("id", sub.id),
				slog.Any("error", err))
			sub.conn.Close()
			b.removeSubscriber(sub.id)
		}
	}
}

func (b *Broker) subscriberCount() int {
	b.subsMu.RLock()
	defer b.subsMu.RUnlock()

	return len(b.subs)
}

// Monitor регистрирует канал-наблюдатель публикуемых сигналов (для
// веб-консоли). Отправка неблокирующая: отстающий наблюдатель
// пропускает сообщения. Возвращённая функция снимает регистрацию.
func (b *Broker) Monitor() (<-chan PublishedSignal, func()) {
	ch := make(chan PublishedSignal, 64)
	id := uuid.New().String()

	b.monMu.Lock()
	b.monitors[id] = ch
	b.monMu.Unlock()

	cancel := func() {
		b.monMu.Lock()
		delete(b.monitors, id)
		b.monMu.Unlock()
	}

	return ch, cancel
}

func (b *Broker) notifyMonitors(sig PublishedSignal) {
	b.monMu.Lock()
	defer b.monMu.Unlock()

	for _, ch := range b.monitors {
		select {
		case ch <- sig:
		default:
		}
	}
}
