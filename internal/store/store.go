// Package store remembers the last joined lobby so "lobby resume" can
// reconnect without going through the join flow again.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/DoyleJ11/lobby-client/pkg/types"
)

var ErrNoSession = errors.New("no saved session")

// sessionRow is the single persisted session. ID is always 1.
type sessionRow struct {
	ID         uint `gorm:"primaryKey"`
	ClientID   string
	RoomCode   string
	PlayerName string
	UpdatedAt  time.Time
}

func (sessionRow) TableName() string { return "sessions" }

type Store struct {
	db *gorm.DB
}

// Open connects to dsn and migrates the schema. postgres:// and
// postgresql:// DSNs use Postgres; anything else is a SQLite path.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DSN is required")
	}
	dialector, err := getDialector(dsn)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	if err := db.AutoMigrate(&sessionRow{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func getDialector(dsn string) (gorm.Dialector, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return postgres.Open(dsn), nil
	}
	if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o700); err != nil {
			return nil, fmt.Errorf("create session dir: %w", err)
		}
	}
	return sqlite.Open(dsn), nil
}

// Save replaces the saved session with s.
func (st *Store) Save(s types.Session) error {
	row := sessionRow{ID: 1, ClientID: s.ClientID, RoomCode: s.RoomCode, PlayerName: s.PlayerName}
	return st.db.Save(&row).Error
}

// Load returns the saved session, or ErrNoSession.
func (st *Store) Load() (types.Session, error) {
	var row sessionRow
	err := st.db.First(&row, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.Session{}, ErrNoSession
	}
	if err != nil {
		return types.Session{}, err
	}
	return types.Session{ClientID: row.ClientID, RoomCode: row.RoomCode, PlayerName: row.PlayerName}, nil
}

// Clear forgets the saved session.
func (st *Store) Clear() error {
	return st.db.Delete(&sessionRow{}, 1).Error
}

func (st *Store) Close() error {
	sqlDB, err := st.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
