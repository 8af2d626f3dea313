package eventbus

import "context"

var globalBus EventBus

// Init устанавливает глобальную шину cross-shard фан-аута снапшотов/эков,
// вызывается один раз из cmd/server/main.go при старте.
func Init(bus EventBus) { globalBus = bus }

// Publish отправляет Snapshot/ActionAck событие в глобальную шину, если она
// инициализирована (нет шины — нет cross-shard фан-аута, локальный шард
// продолжает работать).
func Publish(ctx context.Context, ev *Envelope) error {
	if globalBus == nil {
		return nil
	}
	return globalBus.Publish(ctx, ev)
}
