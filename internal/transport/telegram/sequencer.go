package telegram

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const updateQueueSize = 16

// sequencer fans updates out to one worker goroutine per chat. Updates for
// the same chat are handled strictly in the order they were dispatched;
// different chats proceed in parallel. Workers are never reclaimed, one
// per chat the process has seen, mirroring the engine's per-key locks.
type sequencer struct {
	handle func(context.Context, tgbotapi.Update)

	mu     sync.Mutex
	queues map[int64]chan tgbotapi.Update
}

func newSequencer(handle func(context.Context, tgbotapi.Update)) *sequencer {
	return &sequencer{
		handle: handle,
		queues: make(map[int64]chan tgbotapi.Update),
	}
}

// dispatch enqueues one update on its chat's queue, starting the worker on
// first use. It blocks when the queue is full, which back-pressures the
// poll loop rather than reordering or dropping updates.
func (s *sequencer) dispatch(ctx context.Context, chatID int64, update tgbotapi.Update) {
	s.mu.Lock()
	queue, ok := s.queues[chatID]
	if !ok {
		queue = make(chan tgbotapi.Update, updateQueueSize)
		s.queues[chatID] = queue
		go s.drain(ctx, queue)
	}
	s.mu.Unlock()

	select {
	case queue <- update:
	case <-ctx.Done():
	}
}

func (s *sequencer) drain(ctx context.Context, queue <-chan tgbotapi.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case update := <-queue:
			s.handle(ctx, update)
		}
	}
}
