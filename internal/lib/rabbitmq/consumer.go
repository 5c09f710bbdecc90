package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"
)

// ConsumerMessage подписывается на очередь и передает тело каждого сообщения
// в handler. Сообщения обрабатываются параллельно, не более prefetchCount
// одновременно. При ошибке обработчика сообщение возвращается в очередь.
func ConsumerMessage(ctx context.Context, ch *amqp.Channel, queueName string, log *slog.Logger, handler func([]byte) error) error {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	sem := make(chan struct{}, prefetchCount)
	go func() {
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					return
				}
				sem <- struct{}{}
				go func(delivery amqp.Delivery) {
					defer func() { <-sem }()
					if err := handler(delivery.Body); err != nil {
						log.Error("handler failed, message requeued",
							slog.String("queue", queueName),
							slog.String("error", err.Error()))
						if nackErr := delivery.Nack(false, true); nackErr != nil {
							log.Error("failed to nack message",
								slog.String("queue", queueName),
								slog.String("error", nackErr.Error()))
						}
						return
					}
					if ackErr := delivery.Ack(false); ackErr != nil {
						log.Error("failed to ack message",
							slog.String("queue", queueName),
							slog.String("error", ackErr.Error()))
					}
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}
