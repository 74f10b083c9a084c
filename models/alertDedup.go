package models

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/proposals_backend/utils"
)

// AlertDedupEntry marks that the alert identified by alert_id was already
// dispatched on alert_date. alert_id is normalize(client)+"_"+window label.
type AlertDedupEntry struct {
	AlertID   string    `gorm:"primaryKey;size:160" json:"alert_id"`
	AlertDate time.Time `gorm:"primaryKey" json:"alert_date"`
	SentAt    time.Time `gorm:"autoCreateTime" json:"sent_at"`
}

// AlertID builds the dedup key for a client and window label.
func AlertID(clientID string, windowLabel string) string {
	return utils.NormalizeName(strings.TrimSpace(clientID)) + "_" + windowLabel
}

// AlertDedupStore is the durable dedup boundary consulted by the alert
// gate. Injectable so tests substitute an in-memory implementation and so
// no module-level singleton accumulates state across runs.
type AlertDedupStore interface {
	// WasSent reports whether a marker exists for (alertID, date) and
	// lazily prunes markers older than the retention horizon.
	WasSent(alertID string, date time.Time) (bool, error)
	// MarkSent records the marker. Idempotent.
	MarkSent(alertID string, date time.Time) error
}

// GormAlertDedupStore backs the dedup table with the shared database.
type GormAlertDedupStore struct {
	DB            *gorm.DB
	RetentionDays int
}

func NewGormAlertDedupStore(db *gorm.DB, retentionDays int) *GormAlertDedupStore {
	if retentionDays <= 0 {
		retentionDays = 7
	}
	return &GormAlertDedupStore{DB: db, RetentionDays: retentionDays}
}

func (s *GormAlertDedupStore) WasSent(alertID string, date time.Time) (bool, error) {
	// Lazy prune on every load keeps the table bounded without a cron.
	horizon := date.AddDate(0, 0, -s.RetentionDays)
	if err := s.DB.Where("alert_date < ?", horizon).Delete(&AlertDedupEntry{}).Error; err != nil {
		return false, err
	}

	var count int64
	err := s.DB.Model(&AlertDedupEntry{}).
		Where("alert_id = ? AND alert_date = ?", alertID, date).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GormAlertDedupStore) MarkSent(alertID string, date time.Time) error {
	entry := AlertDedupEntry{AlertID: alertID, AlertDate: date}
	err := s.DB.Create(&entry).Error
	if err != nil && isDuplicateKeyErr(err) {
		return nil
	}
	return err
}
