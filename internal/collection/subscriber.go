package collection

import "github.com/xxxsen/cen64-launcher/internal/model"

// Subscriber receives the notifications of one pass. Calls are made on the
// goroutine running the pass, in order: RecordReady per record, Progress
// while a slow pass is running, then exactly one ScanComplete.
type Subscriber interface {
	RecordReady(rec model.RomRecord)
	Progress(done, total int)
	ScanComplete(summary Summary)
}

// FuncSubscriber adapts plain callbacks; nil callbacks are skipped.
type FuncSubscriber struct {
	OnRecord   func(rec model.RomRecord)
	OnProgress func(done, total int)
	OnComplete func(summary Summary)
}

func (f FuncSubscriber) RecordReady(rec model.RomRecord) {
	if f.OnRecord != nil {
		f.OnRecord(rec)
	}
}

func (f FuncSubscriber) Progress(done, total int) {
	if f.OnProgress != nil {
		f.OnProgress(done, total)
	}
}

func (f FuncSubscriber) ScanComplete(summary Summary) {
	if f.OnComplete != nil {
		f.OnComplete(summary)
	}
}

// EventKind tags a channel event.
type EventKind int

const (
	EventRecord EventKind = iota
	EventProgress
	EventComplete
)

// Event is one notification delivered through a ChanSubscriber.
type Event struct {
	Kind    EventKind
	Record  model.RomRecord
	Done    int
	Total   int
	Summary Summary
}

// ChanSubscriber publishes notifications as typed events. Sends block, so
// the consumer must keep reading until the EventComplete of each pass.
type ChanSubscriber struct {
	ch chan Event
}

// NewChanSubscriber creates a subscriber with the given channel buffer.
func NewChanSubscriber(buffer int) *ChanSubscriber {
	return &ChanSubscriber{ch: make(chan Event, buffer)}
}

// Events returns the receive side of the event stream.
func (c *ChanSubscriber) Events() <-chan Event {
	return c.ch
}

func (c *ChanSubscriber) RecordReady(rec model.RomRecord) {
	c.ch <- Event{Kind: EventRecord, Record: rec}
}

func (c *ChanSubscriber) Progress(done, total int) {
	c.ch <- Event{Kind: EventProgress, Done: done, Total: total}
}

func (c *ChanSubscriber) ScanComplete(summary Summary) {
	c.ch <- Event{Kind: EventComplete, Summary: summary}
}

type multiSubscriber []Subscriber

// Multi fans notifications out to several subscribers.
func Multi(subs ...Subscriber) Subscriber {
	return multiSubscriber(subs)
}

func (m multiSubscriber) RecordReady(rec model.RomRecord) {
	for _, s := range m {
		s.RecordReady(rec)
	}
}

func (m multiSubscriber) Progress(done, total int) {
	for _, s := range m {
		s.Progress(done, total)
	}
}

func (m multiSubscriber) ScanComplete(summary Summary) {
	for _, s := range m {
		s.ScanComplete(summary)
	}
}
