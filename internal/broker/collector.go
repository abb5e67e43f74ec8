package broker

import (
	"bufio"
	"bytes"
	"context"
	"log/slog"
	"net"

	"tradecopier/internal/models"
)

// runCollector обслуживает ingress-порт: много продюсеров, один поток
// в очередь обработки. Протокол: один JSON-объект на строку.
func (b *Broker) runCollector(ctx context.Context) {
	b.acceptLoop(ctx, b.signalLn, b.collectFrom)
}

// collectFrom читает сигналы одного соединения. Строка, не являющаяся
// JSON-объектом, логируется и отбрасывается - до очереди она не доходит
// и цикл не роняет. Put блокируется при заполненной очереди, вместе с ним
// встаёт и чтение из сокета (backpressure на отправителя).
func (b *Broker) collectFrom(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		sig, err := models.ParseSignal(line)
		if err != nil {
			b.logger.Warn("💬 Malformed signal discarded",
				slog.String("remote", conn.RemoteAddr().String()),
				slog.String("payload", string(line)),
				slog.Any("error", err))
			continue
		}

		if err := b.processing.Put(ctx, sig); err != nil {
			return // остановка сервиса
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		b.logger.Debug("Signal connection closed",
			slog.String("remote", conn.RemoteAddr().String()),
			slog.Any("error", err))
	}
}
