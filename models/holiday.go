package models

import (
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/proposals_backend/config"
)

// Holiday is one non-working calendar date.
type Holiday struct {
	HolidayDate time.Time `gorm:"primaryKey" json:"holiday_date"`
	Description string    `gorm:"size:120" json:"description"`
}

// BusinessCalendar answers working-day questions. DB-backed in production;
// a fixed fake in tests.
type BusinessCalendar interface {
	IsBusinessDay(date time.Time) bool
	PreviousBusinessDay(date time.Time) *time.Time
}

type gormBusinessCalendar struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewBusinessCalendar(db *gorm.DB, logger *logrus.Logger) BusinessCalendar {
	return &gormBusinessCalendar{db: db, logger: logger}
}

// IsBusinessDay: weekends are never business days; weekdays check the
// holiday table. When the table cannot be consulted the calendar degrades
// to the Mon-Fri answer with a warning, never an error.
func (c *gormBusinessCalendar) IsBusinessDay(date time.Time) bool {
	if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
		return false
	}
	var count int64
	err := c.db.Model(&Holiday{}).Where("holiday_date = ?", dateOnly(date)).Count(&count).Error
	if err != nil {
		config.LogWarn(c.logger, "holiday.go", "IsBusinessDay",
			"holiday table unavailable, falling back to Mon-Fri", err.Error())
		return true
	}
	return count == 0
}

func (c *gormBusinessCalendar) PreviousBusinessDay(date time.Time) *time.Time {
	d := dateOnly(date)
	for i := 0; i < 30; i++ {
		d = d.AddDate(0, 0, -1)
		if c.IsBusinessDay(d) {
			out := d
			return &out
		}
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
