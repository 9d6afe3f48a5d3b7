package telegram

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// Contact is one known Telegram chat and the patient record behind it.
type Contact struct {
	ChatID      int64
	PatientID   string
	Username    string
	DisplayName string
}

// ContactStore persists the chat-to-patient binding so attendants can
// match a Telegram conversation to a patient record. It lives in its
// own SQLite file, separate from the clinical database.
type ContactStore struct {
	db    *sql.DB
	cache map[int64]Contact
	mu    sync.Mutex
}

// NewContactStore opens (or creates) the store at dbPath.
func NewContactStore(dbPath string) (*ContactStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open contact store: %w", err)
	}

	store := &ContactStore{
		db:    db,
		cache: make(map[int64]Contact),
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init contact schema: %w", err)
	}

	return store, nil
}

func (s *ContactStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS telegram_contacts (
		chat_id INTEGER PRIMARY KEY,
		patient_id TEXT NOT NULL,
		username TEXT,
		display_name TEXT,
		first_seen_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_telegram_contacts_patient ON telegram_contacts(patient_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record upserts the binding for a chat. Unchanged bindings are served
// from cache without touching the database; people rename themselves on
// Telegram rarely, message often.
func (s *ContactStore) Record(chatID int64, patientID, username, displayName string) error {
	contact := Contact{
		ChatID:      chatID,
		PatientID:   patientID,
		Username:    username,
		DisplayName: displayName,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, exists := s.cache[chatID]; exists && cached == contact {
		return nil
	}

	_, err := s.db.Exec(`
		INSERT INTO telegram_contacts (chat_id, patient_id, username, display_name, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(chat_id) DO UPDATE SET
			patient_id = excluded.patient_id,
			username = excluded.username,
			display_name = excluded.display_name,
			updated_at = CURRENT_TIMESTAMP`,
		chatID, patientID, username, displayName)
	if err != nil {
		return fmt.Errorf("failed to record contact: %w", err)
	}

	s.cache[chatID] = contact
	return nil
}

// Lookup returns the binding for a chat, if one was ever recorded.
func (s *ContactStore) Lookup(chatID int64) (Contact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if contact, exists := s.cache[chatID]; exists {
		return contact, true
	}

	contact := Contact{ChatID: chatID}
	row := s.db.QueryRow(`
		SELECT patient_id, username, display_name
		FROM telegram_contacts WHERE chat_id = ?`, chatID)

	if err := row.Scan(&contact.PatientID, &contact.Username, &contact.DisplayName); err != nil {
		return Contact{}, false
	}

	s.cache[chatID] = contact
	return contact, true
}

// Close closes the underlying database.
func (s *ContactStore) Close() error {
	return s.db.Close()
}
