// Package events is an in-process pub/sub bus carrying tree refresh,
// transfer and log events between the core and presentation adapters.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dbxsync/dbx-sync/internal/constants"
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	EventRefresh EventType = "refresh"
	EventLog     EventType = "log"

	EventTransferStarted   EventType = "transfer_started"
	EventTransferCompleted EventType = "transfer_completed"
	EventTransferFailed    EventType = "transfer_failed"
	EventTransferSkipped   EventType = "transfer_skipped"
)

// LogLevel defines log severity levels
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// RefreshEvent asks views to re-read part of the tree.
// An empty TargetPath means the whole tree.
type RefreshEvent struct {
	BaseEvent
	TargetPath  string
	ForceReload bool
}

// TransferDirection of a TransferEvent.
type TransferDirection string

const (
	Download TransferDirection = "download"
	Upload   TransferDirection = "upload"
)

// TransferEvent reports one notebook transfer of a directory sync.
type TransferEvent struct {
	BaseEvent
	Direction  TransferDirection
	RemotePath string
	LocalPath  string
	Error      error // set for EventTransferFailed
}

// LogEvent carries a user-facing message.
type LogEvent struct {
	BaseEvent
	Level   LogLevel
	Message string
	Path    string
	Error   error
}

// EventBus manages event subscriptions and publishing
type EventBus struct {
	subscribers   map[EventType][]chan Event
	all           []chan Event
	mu            sync.RWMutex
	bufferSize    int
	closed        bool
	droppedEvents atomic.Int64
}

// NewEventBus creates a new event bus with the given per-subscriber buffer.
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = constants.EventBusDefaultBuffer
	}
	if bufferSize > constants.EventBusMaxBuffer {
		bufferSize = constants.EventBusMaxBuffer
	}
	return &EventBus{
		subscribers: make(map[EventType][]chan Event),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to one or more event types.
// The same channel receives all of them.
func (eb *EventBus) Subscribe(eventTypes ...EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	for _, t := range eventTypes {
		eb.subscribers[t] = append(eb.subscribers[t], ch)
	}
	return ch
}

// SubscribeAll creates a subscription to all events
func (eb *EventBus) SubscribeAll() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.all = append(eb.all, ch)
	return ch
}

// Publish never blocks. Events for a full subscriber are dropped and counted.
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	for _, ch := range eb.subscribers[event.Type()] {
		eb.send(ch, event)
	}
	for _, ch := range eb.all {
		eb.send(ch, event)
	}
}

func (eb *EventBus) send(ch chan Event, event Event) {
	select {
	case ch <- event:
	default:
		if dropped := eb.droppedEvents.Add(1); dropped%100 == 0 {
			log.Warn().Int64("dropped", dropped).Str("type", string(event.Type())).Msg("event bus subscriber is falling behind")
		}
	}
}

// Close shuts down the event bus and closes all channels
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}
	eb.closed = true

	// a channel subscribed to several types must be closed once
	closed := make(map[chan Event]bool)
	for _, channels := range eb.subscribers {
		for _, ch := range channels {
			if !closed[ch] {
				close(ch)
				closed[ch] = true
			}
		}
	}
	for _, ch := range eb.all {
		close(ch)
	}
}

// PublishRefresh publishes a RefreshEvent.
func (eb *EventBus) PublishRefresh(targetPath string, forceReload bool) {
	eb.Publish(&RefreshEvent{
		BaseEvent:   BaseEvent{EventType: EventRefresh, Time: time.Now()},
		TargetPath:  targetPath,
		ForceReload: forceReload,
	})
}

// PublishTransfer publishes a TransferEvent of the given type.
func (eb *EventBus) PublishTransfer(eventType EventType, dir TransferDirection, remotePath, localPath string, err error) {
	eb.Publish(&TransferEvent{
		BaseEvent:  BaseEvent{EventType: eventType, Time: time.Now()},
		Direction:  dir,
		RemotePath: remotePath,
		LocalPath:  localPath,
		Error:      err,
	})
}

// PublishLog is a convenience method for publishing log events
func (eb *EventBus) PublishLog(level LogLevel, message, path string, err error) {
	eb.Publish(&LogEvent{
		BaseEvent: BaseEvent{EventType: EventLog, Time: time.Now()},
		Level:     level,
		Message:   message,
		Path:      path,
		Error:     err,
	})
}

// Unsubscribe removes ch from every event type it was subscribed to.
// The channel is not closed.
func (eb *EventBus) Unsubscribe(ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	for eventType, subscribers := range eb.subscribers {
		for i, subCh := range subscribers {
			if subCh == ch {
				subscribers[i] = subscribers[len(subscribers)-1]
				eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
				break
			}
		}
	}
	for i, subCh := range eb.all {
		if subCh == ch {
			eb.all[i] = eb.all[len(eb.all)-1]
			eb.all = eb.all[:len(eb.all)-1]
			break
		}
	}
}

// GetDroppedEventCount returns the total number of events dropped due to full buffers
func (eb *EventBus) GetDroppedEventCount() int64 {
	return eb.droppedEvents.Load()
}
