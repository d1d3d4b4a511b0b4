package app

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Name       string `json:"name"`
	Success    bool   `json:"success"`
	Output     string `json:"output"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// FileContextTag marks a system-role message that carries the contents of a
// file injected into the conversation. Hash and Size let us skip re-inserting
// the same file twice.
type FileContextTag struct {
	Path string `json:"path"`
	Hash string `json:"hash"`
	Size int    `json:"size"`
}

// Message is one entry in the conversation history. Messages are never
// mutated after creation; truncation builds a new slice instead.
type Message struct {
	ID          string          `json:"id"`
	Role        string          `json:"role"` // system|user|assistant|tool
	Content     string          `json:"content"`
	ToolCalls   []ToolCall      `json:"tool_calls,omitempty"`   // assistant only
	ToolCallID  string          `json:"tool_call_id,omitempty"` // tool only
	Name        string          `json:"name,omitempty"`         // tool only
	FileContext *FileContextTag `json:"file_context,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func NewMessage(role, content string) Message {
	return Message{
		ID:        ulid.Make().String(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

func NewAssistantMessage(content string, calls []ToolCall) Message {
	msg := NewMessage(RoleAssistant, content)
	msg.ToolCalls = calls
	return msg
}

func NewToolMessage(res ToolResult) Message {
	content := res.Output
	if !res.Success && res.Error != "" {
		content = res.Error
	}
	msg := NewMessage(RoleTool, content)
	msg.ToolCallID = res.ToolCallID
	msg.Name = res.Name
	return msg
}

// NewFileContextMessage wraps file content in a tagged system message.
func NewFileContextMessage(path, content string) Message {
	sum := sha256.Sum256([]byte(content))
	msg := NewMessage(RoleSystem, content)
	msg.FileContext = &FileContextTag{
		Path: path,
		Hash: hex.EncodeToString(sum[:]),
		Size: len(content),
	}
	return msg
}

// AppendFileContext appends a file-context entry unless an entry with the
// same path and content hash is already present. Returns the (possibly
// extended) history and whether the entry was added.
func AppendFileContext(history []Message, path, content string) ([]Message, bool) {
	entry := NewFileContextMessage(path, content)
	for _, msg := range history {
		if msg.FileContext == nil {
			continue
		}
		if msg.FileContext.Path == entry.FileContext.Path && msg.FileContext.Hash == entry.FileContext.Hash {
			return history, false
		}
	}
	return append(history, entry), true
}

// toolResultIDs returns the set of tool-call ids that have a resolving
// tool-role message anywhere in the history.
func toolResultIDs(history []Message) map[string]bool {
	resolved := make(map[string]bool)
	for _, msg := range history {
		if msg.Role == RoleTool && msg.ToolCallID != "" {
			resolved[msg.ToolCallID] = true
		}
	}
	return resolved
}

// pendingToolCalls returns the ids of assistant tool calls that have no
// resolving tool-role message yet, in issue order.
func pendingToolCalls(history []Message) []string {
	resolved := toolResultIDs(history)
	var pending []string
	for _, msg := range history {
		if msg.Role != RoleAssistant {
			continue
		}
		for _, call := range msg.ToolCalls {
			if !resolved[call.ID] {
				pending = append(pending, call.ID)
			}
		}
	}
	return pending
}
