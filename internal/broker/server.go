package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"tradecopier/internal/models"
)

const defaultQueueSize = 1000

// Store - операции хранилища, нужные брокеру на горячем пути
type Store interface {
	ComposeConfig(copyIDStr string) (*models.EAConfig, error)
	SaveTradeHistory(copyIDStr, sourceIDStr, symbol string, profit float64, sourceTicket int64) error
}

// Config - адреса портов и лимиты брокера
type Config struct {
	ConfigAddr   string // request/reply порт конфигов
	SignalAddr   string // ingress-порт сигналов
	PublishAddr  string // pub/sub порт
	QueueSize    int    // ёмкость внутренних очередей (по умолчанию 1000)
	StoreWorkers int    // слоты пула блокирующих вызовов хранилища
}

// Broker - ядро сервиса: три TCP-порта, две внутренние очереди и четыре
// долгоживущих цикла (responder, collector, processor, publisher).
// Очередь оповещений передаётся конструктору явно: брокер только пишет
// в неё, доставкой занимается внешний отправщик.
type Broker struct {
	cfg    Config
	store  Store
	alerts *AlertQueue
	logger *slog.Logger

	processing *SignalQueue
	publish    *SignalQueue
	pool       *Pool

	configLn  net.Listener
	signalLn  net.Listener
	publishLn net.Listener

	subsMu sync.RWMutex
	subs   map[string]*subscriber

	monMu    sync.Mutex
	monitors map[string]chan PublishedSignal
}

// New создаёт брокер. Слушатели открываются в Listen.
func New(cfg Config, store Store, alerts *AlertQueue, logger *slog.Logger) *Broker {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}

	return &Broker{
		cfg:        cfg,
		store:      store,
		alerts:     alerts,
		logger:     logger,
		processing: NewSignalQueue(cfg.QueueSize),
		publish:    NewSignalQueue(cfg.QueueSize),
		pool:       NewPool(cfg.StoreWorkers),
		subs:       make(map[string]*subscriber),
		monitors:   make(map[string]chan PublishedSignal),
	}
}

// Listen открывает все три порта. Ошибка любого bind фатальна для запуска.
func (b *Broker) Listen() error {
	var err error

	b.configLn, err = net.Listen("tcp", b.cfg.ConfigAddr)
	if err != nil {
		return fmt.Errorf("config port %s: %w", b.cfg.ConfigAddr, err)
	}

	b.signalLn, err = net.Listen("tcp", b.cfg.SignalAddr)
	if err != nil {
		b.configLn.Close()
		return fmt.Errorf("signal port %s: %w", b.cfg.SignalAddr, err)
	}

	b.publishLn, err = net.Listen("tcp", b.cfg.PublishAddr)
	if err != nil {
		b.configLn.Close()
		b.signalLn.Close()
		return fmt.Errorf("publish port %s: %w", b.cfg.PublishAddr, err)
	}

	b.logger.Info("📥 Config responder listening", slog.String("addr", b.configLn.Addr().String()))
	b.logger.Info("📥 Signal collector listening", slog.String("addr", b.signalLn.Addr().String()))
	b.logger.Info("📤 Signal publisher listening", slog.String("addr", b.publishLn.Addr().String()))

	return nil
}

// ConfigAddr возвращает фактический адрес config-порта (после Listen)
func (b *Broker) ConfigAddr() string { return b.configLn.Addr().String() }

// SignalAddr возвращает фактический адрес ingress-порта
func (b *Broker) SignalAddr() string { return b.signalLn.Addr().String() }

// PublishAddr возвращает фактический адрес pub/sub порта
func (b *Broker) PublishAddr() string { return b.publishLn.Addr().String() }

// Serve запускает все циклы и блокируется до отмены контекста
func (b *Broker) Serve(ctx context.Context) {
	var wg sync.WaitGroup

	loops := []func(context.Context){
		b.runResponder,
		b.runCollector,
		b.runProcessor,
		b.runPublisher,
		b.runSubscriptionListener,
	}
	for _, loop := range loops {
		wg.Add(1)
		go func(run func(context.Context)) {
			defer wg.Done()
			run(ctx)
		}(loop)
	}

	<-ctx.Done()

	b.configLn.Close()
	b.signalLn.Close()
	b.publishLn.Close()
	b.closeSubscribers()

	wg.Wait()
	b.logger.Info("⏹ Broker stopped")
}

// acceptLoop обслуживает один слушатель, передавая соединения handle
func (b *Broker) acceptLoop(ctx context.Context, ln net.Listener, handle func(context.Context, net.Conn)) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}

			b.logger.Error("Accept failed", slog.Any("error", err))
			continue
		}

		go handle(ctx, conn)
	}
}
