package workflow

import (
	"fmt"

	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/proposals_backend/models"
)

// AcquireProposalLock serializes writers per proposal key across pipeline
// instances using MySQL advisory locks, so a status diff always compares
// against a fully committed row.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same
// *gorm.DB that will run the upsert transaction.
func AcquireProposalLock(tx *gorm.DB, key models.ProposalKey) error {
	lockName := lockNameFor(key)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire proposal lock for key=%s", key.String())
	}
	return nil
}

// holdLockAround runs acquire, then fn, and releases only after fn has
// returned. fn is where the transaction commits, so the next holder of the
// lock can only ever observe committed state.
func holdLockAround(acquire func() error, fn func() error, release func()) error {
	if err := acquire(); err != nil {
		return err
	}
	defer release()
	return fn()
}

func ReleaseProposalLock(tx *gorm.DB, key models.ProposalKey) {
	lockName := lockNameFor(key)
	var released int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&released).Error
}

func lockNameFor(key models.ProposalKey) string {
	// MySQL caps lock names at 64 chars; hash-length keys would need a
	// digest, proposal keys stay well under the limit in practice.
	name := fmt.Sprintf("proposal:%s", key.String())
	if len(name) > 64 {
		name = name[:64]
	}
	return name
}
