package queue

import (
	"context"
	"sync"
)

// MemoryBroker delivers messages in process. Handlers run synchronously inside Publish;
// messages published to a queue without subscribers are kept and can be read with
// Messages.
type MemoryBroker struct {
	mu       sync.Mutex
	handlers map[string][]MessageHandler
	messages map[string][][]byte
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		handlers: make(map[string][]MessageHandler),
		messages: make(map[string][][]byte),
	}
}

func (b *MemoryBroker) Publish(ctx context.Context, queueName string, message []byte) error {
	b.mu.Lock()
	b.messages[queueName] = append(b.messages[queueName], message)
	handlers := append([]MessageHandler(nil), b.handlers[queueName]...)
	b.mu.Unlock()

	for _, h := range handlers {
		if err := h(ctx, message); err != nil {
			return err
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, queueName string, handler MessageHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[queueName] = append(b.handlers[queueName], handler)
	return nil
}

func (b *MemoryBroker) Messages(queueName string) [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([][]byte(nil), b.messages[queueName]...)
}

func (b *MemoryBroker) Close() error {
	return nil
}

func (b *MemoryBroker) Healthy() bool {
	return true
}
