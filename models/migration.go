package models

import (
	"log"

	"bitbucket.org/mmdatafocus/proposals_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&ValidProposal{}, &InvalidProposal{},
		&ProposalStatusHistory{},
		&DailySummary{},
		&AlertDedupEntry{},
		&ProcessingRun{},
		&ClientRange{}, &Holiday{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
