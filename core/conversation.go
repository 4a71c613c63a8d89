package orchestration

import (
	"iter"
	"slices"
	"sync"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// Message is a single conversation log entry. Messages are values and never
// change after they were appended.
type Message struct {
	ID      int64
	Role    Role
	Content string
}

// ConversationLog is an append-only, ordered record of messages.
//
// Ids come from a counter owned by the log, so they are strictly increasing
// for the whole lifetime of the log and independent of the wall clock.
type ConversationLog struct {
	mu      sync.RWMutex
	entries []Message
	lastID  int64
}

func NewConversationLog() *ConversationLog {
	return &ConversationLog{}
}

func (l *ConversationLog) Append(role Role, content string) Message {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lastID++
	message := Message{ID: l.lastID, Role: role, Content: content}
	l.entries = append(l.entries, message)
	return message
}

// Entries returns the messages present at call time in append order.
// Messages appended later are not visible to the returned sequence, which can
// be ranged over any number of times.
func (l *ConversationLog) Entries() iter.Seq[Message] {
	l.mu.RLock()
	snapshot := slices.Clone(l.entries)
	l.mu.RUnlock()

	return func(yield func(Message) bool) {
		for _, message := range snapshot {
			if !yield(message) {
				return
			}
		}
	}
}

func (l *ConversationLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

func (l *ConversationLog) Last() (Message, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.entries) == 0 {
		return Message{}, false
	}
	return l.entries[len(l.entries)-1], true
}
