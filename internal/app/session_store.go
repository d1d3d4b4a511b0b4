package app

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Session groups the messages of one conversation in one working directory.
type Session struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	WorkDir   string `json:"work_dir"`
	Title     string `json:"title,omitempty"`
	// Truncations counts how many times this session's history was rewritten
	// to fit budget; useful when debugging context loss reports.
	Truncations int `json:"truncations,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileSessionStore persists sessions and messages as JSON files.
//
// Layout:
//
//	<root>/session/<projectID>/<sessionID>.json
//	<root>/message/<sessionID>/<msgID>.json
//
// Message ids are ULIDs, so lexical order is creation order.
type FileSessionStore struct {
	Root string
}

func DefaultStateRoot() string {
	if base := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); base != "" {
		return filepath.Join(base, "coda", "storage")
	}
	if base, err := os.UserHomeDir(); err == nil && base != "" {
		return filepath.Join(base, ".local", "share", "coda", "storage")
	}
	return filepath.Join(os.TempDir(), "coda", "storage")
}

func NewFileSessionStore(root string) *FileSessionStore {
	if strings.TrimSpace(root) == "" {
		root = DefaultStateRoot()
	}
	return &FileSessionStore{Root: root}
}

func (s *FileSessionStore) projectID(workDir string) (string, string, error) {
	wd := strings.TrimSpace(workDir)
	if wd == "" {
		var err error
		wd, err = os.Getwd()
		if err != nil {
			return "", "", err
		}
	}
	abs, err := filepath.Abs(wd)
	if err != nil {
		return "", "", err
	}
	sum := sha256.Sum256([]byte(abs))
	return hex.EncodeToString(sum[:])[:16], abs, nil
}

func (s *FileSessionStore) sessionPath(projectID, sessionID string) string {
	return filepath.Join(s.Root, "session", projectID, sessionID+".json")
}

func (s *FileSessionStore) messagesDir(sessionID string) string {
	return filepath.Join(s.Root, "message", sessionID)
}

func (s *FileSessionStore) CreateSession(workDir string) (*Session, error) {
	projectID, absWorkDir, err := s.projectID(workDir)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	sess := &Session{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		WorkDir:   absWorkDir,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.SaveSession(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *FileSessionStore) SaveSession(sess *Session) error {
	if sess == nil || sess.ID == "" {
		return errors.New("invalid session")
	}
	sess.UpdatedAt = time.Now()
	path := s.sessionPath(sess.ProjectID, sess.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *FileSessionStore) LoadSession(workDir, sessionID string) (*Session, error) {
	projectID, _, err := s.projectID(workDir)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.sessionPath(projectID, sessionID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *FileSessionStore) AppendMessage(sessionID string, msg Message) error {
	if sessionID == "" || msg.ID == "" {
		return errors.New("missing session or message id")
	}
	dir := s.messagesDir(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(msg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, msg.ID+".json"), data, 0o644)
}

// LoadMessages returns the session's messages in creation order.
func (s *FileSessionStore) LoadMessages(sessionID string) ([]Message, error) {
	dir := s.messagesDir(sessionID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	messages := make([]Message, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}
