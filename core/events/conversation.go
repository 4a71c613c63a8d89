package events

// KindMessageAppended identifies an append to the conversation log.
const KindMessageAppended Kind = "conversation.message_appended"

// MessageAppended carries a copy of the appended entry.
type MessageAppended struct {
	Base
	ID      int64
	Role    string
	Content string
}

// NewMessageAppended creates a message appended event.
func NewMessageAppended(id int64, role, content string) MessageAppended {
	return MessageAppended{Base: NewBase(KindMessageAppended), ID: id, Role: role, Content: content}
}
