package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// Storage keys, mirrored from the browser build of this client which kept
// the same two entries in localStorage.
const (
	keyToken       = "token"
	keyCurrentUser = "currentUser"
)

type stateEntry struct {
	Key   string `gorm:"primaryKey;column:key"`
	Value string `gorm:"column:value;not null"`
}

func (stateEntry) TableName() string {
	return "session_state"
}

// SQLiteStore is the durable session store. State lives in a small sqlite
// file so the session survives process restarts; reads are served from an
// in-memory copy loaded at open time, since the store is read before every
// request.
type SQLiteStore struct {
	db     *gorm.DB
	logger *slog.Logger

	mu    sync.RWMutex
	token string
	user  *CurrentUser
}

func OpenSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create session store directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	if err := db.AutoMigrate(&stateEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate session store: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) load() error {
	var entries []stateEntry
	if err := s.db.Find(&entries).Error; err != nil {
		return fmt.Errorf("failed to load session state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		switch e.Key {
		case keyToken:
			s.token = e.Value
		case keyCurrentUser:
			var u CurrentUser
			if err := json.Unmarshal([]byte(e.Value), &u); err != nil {
				s.logger.Warn("discarding unreadable persisted user", "error", err)
				continue
			}
			s.user = &u
		}
	}
	return nil
}

func (s *SQLiteStore) upsert(tx *gorm.DB, key, value string) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&stateEntry{Key: key, Value: value}).Error
}

func (s *SQLiteStore) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token == "" {
		if err := s.db.Delete(&stateEntry{}, "key = ?", keyToken).Error; err != nil {
			return fmt.Errorf("failed to remove token: %w", err)
		}
		s.token = ""
		return nil
	}

	if err := s.upsert(s.db, keyToken, token); err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}
	s.token = token
	return nil
}

func (s *SQLiteStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *SQLiteStore) SetCurrentUser(user *CurrentUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user == nil {
		if err := s.db.Delete(&stateEntry{}, "key = ?", keyCurrentUser).Error; err != nil {
			return fmt.Errorf("failed to remove user: %w", err)
		}
		s.user = nil
		return nil
	}

	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	if err := s.upsert(s.db, keyCurrentUser, string(raw)); err != nil {
		return fmt.Errorf("failed to persist user: %w", err)
	}
	copied := *user
	s.user = &copied
	return nil
}

func (s *SQLiteStore) CurrentUser() *CurrentUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	copied := *s.user
	return &copied
}

func (s *SQLiteStore) SetSession(token string, user *CurrentUser) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.upsert(tx, keyToken, token); err != nil {
			return err
		}
		return s.upsert(tx, keyCurrentUser, string(raw))
	})
	if err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	s.token = token
	copied := *user
	s.user = &copied
	return nil
}

// Clear removes token and user in one transaction so no reader can ever
// observe one present without the other.
func (s *SQLiteStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Delete(&stateEntry{}, "key IN ?", []string{keyToken, keyCurrentUser}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	s.token = ""
	s.user = nil
	return nil
}
