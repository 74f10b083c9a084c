package models

import (
	"time"

	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/proposals_backend/utils"
)

// ClientRange maps a client to its bank-assigned seuno range prefix and the
// normalized company code used when the source spells the company name in
// more than one way.
type ClientRange struct {
	ClientID      string    `gorm:"primaryKey;size:40" json:"client_id"`
	RangePrefix   string    `gorm:"size:12" json:"range_prefix"`
	CompanyCode   string    `gorm:"size:30" json:"company_code"`
	CompanyAlias  string    `gorm:"size:120" json:"company_alias"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// ClientMetadataResolver supplies per-client validation metadata to the
// classifier. DB-backed in production, a map fake in tests.
type ClientMetadataResolver interface {
	// RangePrefix returns the expected seuno range prefix for a client;
	// empty when the client has no assigned range (prefix check skipped).
	RangePrefix(clientID string) (string, error)
	// NormalizeCompany maps a raw company spelling to the registry code,
	// falling back to the folded raw value when the client is unknown.
	NormalizeCompany(clientID string, rawCompany string) (string, error)
}

type gormClientMetadataResolver struct {
	db    *gorm.DB
	cache map[string]*ClientRange
}

func NewClientMetadataResolver(db *gorm.DB) ClientMetadataResolver {
	return &gormClientMetadataResolver{db: db, cache: map[string]*ClientRange{}}
}

func (r *gormClientMetadataResolver) lookup(clientID string) (*ClientRange, error) {
	if cached, ok := r.cache[clientID]; ok {
		return cached, nil
	}
	var row ClientRange
	err := r.db.Where("client_id = ?", clientID).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		r.cache[clientID] = nil
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.cache[clientID] = &row
	return &row, nil
}

func (r *gormClientMetadataResolver) RangePrefix(clientID string) (string, error) {
	row, err := r.lookup(clientID)
	if err != nil || row == nil {
		return "", err
	}
	return row.RangePrefix, nil
}

func (r *gormClientMetadataResolver) NormalizeCompany(clientID string, rawCompany string) (string, error) {
	row, err := r.lookup(clientID)
	if err != nil {
		return "", err
	}
	if row != nil && row.CompanyCode != "" {
		return row.CompanyCode, nil
	}
	return utils.NormalizeName(rawCompany), nil
}
