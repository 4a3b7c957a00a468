package db

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	dbmodels "barangay-services-backend/models/db"
)

func AutoMigrateDB() error {
	DB.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\";")
	log.Info("running migrations")
	if err := DB.AutoMigrate(&dbmodels.Barangay{}); err != nil {
		return errors.Wrap(err, "migrating Barangay")
	}
	if err := DB.AutoMigrate(&dbmodels.User{}); err != nil {
		return errors.Wrap(err, "migrating User")
	}
	if err := DB.AutoMigrate(&dbmodels.RequestCategory{}); err != nil {
		return errors.Wrap(err, "migrating RequestCategory")
	}
	if err := DB.AutoMigrate(&dbmodels.Item{}); err != nil {
		return errors.Wrap(err, "migrating Item")
	}
	if err := DB.AutoMigrate(&dbmodels.RequestRecord{}); err != nil {
		return errors.Wrap(err, "migrating RequestRecord")
	}
	if err := DB.AutoMigrate(&dbmodels.EvidenceAttachment{}); err != nil {
		return errors.Wrap(err, "migrating EvidenceAttachment")
	}
	if err := DB.AutoMigrate(&dbmodels.DecisionLog{}); err != nil {
		return errors.Wrap(err, "migrating DecisionLog")
	}
	log.Info("migrations finished")
	return nil
}
