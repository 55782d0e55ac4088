package chat

import (
	"context"
	"sync"
)

// fakeAPI is an in-memory MessageAPI with scriptable failures.
type fakeAPI struct {
	mu sync.Mutex

	thread    []Message
	threadErr error

	recipientPages [][]Message
	recipientErr   error
	senderPages    [][]Message
	senderErr      error

	sendResult Message
	sendErr    error
	sendCalls  []Outgoing
	sendHook   func(Outgoing)

	readErrs  map[string]error
	readCalls []string

	deliveredErr   error
	deliveredCalls []string
}

func (f *fakeAPI) SendMessage(_ context.Context, out Outgoing) (Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendCalls = append(f.sendCalls, out)
	if f.sendHook != nil {
		f.sendHook(out)
	}
	if f.sendErr != nil {
		return Message{}, f.sendErr
	}
	return f.sendResult, nil
}

func (f *fakeAPI) ThreadMessages(context.Context, string, string) ([]Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.threadErr != nil {
		return nil, f.threadErr
	}
	return append([]Message(nil), f.thread...), nil
}

func (f *fakeAPI) RecipientMessages(_ context.Context, _ string, page Page) ([]Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recipientErr != nil {
		return nil, f.recipientErr
	}
	return pageOf(f.recipientPages, page.Number), nil
}

func (f *fakeAPI) SenderMessages(_ context.Context, _ string, page Page) ([]Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.senderErr != nil {
		return nil, f.senderErr
	}
	return pageOf(f.senderPages, page.Number), nil
}

func (f *fakeAPI) MarkRead(_ context.Context, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readCalls = append(f.readCalls, messageID)
	if err, ok := f.readErrs[messageID]; ok {
		return err
	}
	return nil
}

func (f *fakeAPI) MarkDelivered(_ context.Context, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliveredCalls = append(f.deliveredCalls, messageID)
	return f.deliveredErr
}

func pageOf(pages [][]Message, number int) []Message {
	if number >= len(pages) {
		return nil
	}
	return append([]Message(nil), pages[number]...)
}

// fakeJobs is an in-memory JobAPI.
type fakeJobs struct {
	job Job
	err error
}

func (f *fakeJobs) Job(context.Context, string) (Job, error) {
	if f.err != nil {
		return Job{}, f.err
	}
	return f.job, nil
}
