package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/proposals_backend/config"
)

type RunMode string

const (
	RunModeNormal RunMode = "normal"
	RunModeDryRun RunMode = "dry-run"
)

// ProcessingRun is the audit row written once per pipeline execution, even
// when the run aborts partway.
type ProcessingRun struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	TargetDate     time.Time `gorm:"index" json:"target_date"`
	ValidationMode string    `gorm:"size:20" json:"validation_mode"`
	Mode           RunMode   `gorm:"size:10" json:"mode"`
	InputCount     int       `gorm:"default:0" json:"input_count"`
	ValidCount     int       `gorm:"default:0" json:"valid_count"`
	InvalidFormat  int       `gorm:"default:0" json:"invalid_format"`
	InvalidCheck   int       `gorm:"default:0" json:"invalid_check"`
	InvalidRange   int       `gorm:"default:0" json:"invalid_range"`
	SkippedCount   int       `gorm:"default:0" json:"skipped_count"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	ElapsedMs      int64     `gorm:"default:0" json:"elapsed_ms"`
	ErrorMessage   string    `gorm:"size:500" json:"error_message"`
}

// NewProcessingRun stamps a fresh audit row. FinishedAt/ElapsedMs are set
// by WriteProcessingRun.
func NewProcessingRun(targetDate time.Time, validationMode string, mode RunMode) *ProcessingRun {
	return &ProcessingRun{
		ID:             uuid.NewString(),
		TargetDate:     targetDate,
		ValidationMode: validationMode,
		Mode:           mode,
		StartedAt:      time.Now(),
	}
}

// WriteProcessingRun persists the audit row. A failure here is logged and
// swallowed: the run log must never take the pipeline down with it.
func WriteProcessingRun(db *gorm.DB, logger *logrus.Logger, run *ProcessingRun) {
	run.FinishedAt = time.Now()
	run.ElapsedMs = run.FinishedAt.Sub(run.StartedAt).Milliseconds()
	if err := db.Create(run).Error; err != nil {
		config.LogError(logger, "processingRun.go", "WriteProcessingRun", "inserting processing run", run.ID, err)
	}
}
