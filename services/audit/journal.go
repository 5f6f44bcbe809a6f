package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"reservevault/core/events"
)

// ErrNilDB is returned when a journal is built without a database handle.
var ErrNilDB = errors.New("audit: database not configured")

// Record is one committed ledger event.
type Record struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Sequence    uint64    `gorm:"uniqueIndex;not null"`
	OperationID uuid.UUID `gorm:"type:uuid;index"`
	Operation   string    `gorm:"index"`
	Type        string    `gorm:"index;not null"`
	Subject     string    `gorm:"index"`
	WindowID    string
	Attributes  string    `gorm:"type:text"`
	CommittedAt time.Time `gorm:"index"`
}

// TableName pins the table name independent of gorm's pluralisation.
func (Record) TableName() string { return "vault_audit_records" }

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Subject string
	Type    string
	After   uint64
	Limit   int
}

// Journal appends committed events to a relational store.
type Journal struct {
	db   *gorm.DB
	next uint64
}

// Open connects to the journal database. DSNs starting with postgres:// or
// postgresql:// use the postgres driver; anything else is treated as a sqlite
// path (":memory:" included).
func Open(dsn string) (*Journal, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("audit: dsn required")
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	var dialector gorm.Dialector
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}
	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("audit: open: %w", err)
	}
	return New(db)
}

// New migrates the schema on db and returns a journal positioned after the
// last stored sequence.
func New(db *gorm.DB) (*Journal, error) {
	if db == nil {
		return nil, ErrNilDB
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("audit: migrate: %w", err)
	}
	var last struct{ Max *uint64 }
	if err := db.Model(&Record{}).Select("MAX(sequence) AS max").Scan(&last).Error; err != nil {
		return nil, fmt.Errorf("audit: load sequence: %w", err)
	}
	j := &Journal{db: db}
	if last.Max != nil {
		j.next = *last.Max
	}
	return j, nil
}

// Record stores evts and then runs apply inside the same database
// transaction. When apply fails nothing is written, so the journal never holds
// events for a ledger change that did not commit.
func (j *Journal) Record(ctx context.Context, operation string, committedAt time.Time, evts []events.Event, apply func() error) error {
	if j == nil || j.db == nil {
		return ErrNilDB
	}
	rows, err := j.buildRows(operation, committedAt, evts)
	if err != nil {
		return err
	}
	err = j.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("audit: insert: %w", err)
			}
		}
		if apply != nil {
			return apply()
		}
		return nil
	})
	if err != nil {
		return err
	}
	j.next += uint64(len(rows))
	return nil
}

func (j *Journal) buildRows(operation string, committedAt time.Time, evts []events.Event) ([]Record, error) {
	opID := uuid.New()
	rows := make([]Record, 0, len(evts))
	seq := j.next
	for _, evt := range evts {
		if evt == nil || evt.Event() == nil {
			continue
		}
		payload := evt.Event()
		attrs, err := json.Marshal(payload.Attributes)
		if err != nil {
			return nil, fmt.Errorf("audit: encode attributes: %w", err)
		}
		seq++
		rows = append(rows, Record{
			ID:          uuid.New(),
			Sequence:    seq,
			OperationID: opID,
			Operation:   operation,
			Type:        payload.Type,
			Subject:     subjectOf(payload.Attributes),
			WindowID:    payload.Attr("windowId"),
			Attributes:  string(attrs),
			CommittedAt: committedAt.UTC(),
		})
	}
	return rows, nil
}

func subjectOf(attrs map[string]string) string {
	for _, key := range []string{"identity", "member", "treasury", "destination"} {
		if v := strings.TrimSpace(attrs[key]); v != "" {
			return v
		}
	}
	return ""
}

// List returns records in commit order.
func (j *Journal) List(ctx context.Context, filter Filter) ([]Record, error) {
	if j == nil || j.db == nil {
		return nil, ErrNilDB
	}
	query := j.db.WithContext(ctx).Model(&Record{}).Order("sequence ASC")
	if filter.Subject != "" {
		query = query.Where("subject = ?", filter.Subject)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.After > 0 {
		query = query.Where("sequence > ?", filter.After)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	var out []Record
	if err := query.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("audit: list: %w", err)
	}
	return out, nil
}

// Attrs decodes the stored attribute map.
func (r Record) Attrs() (map[string]string, error) {
	out := map[string]string{}
	if strings.TrimSpace(r.Attributes) == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(r.Attributes), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Close releases the underlying connection pool.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
