package db

import (
	log "github.com/sirupsen/logrus"

	dbmodels "barangay-services-backend/models/db"
)

func InitPreload() {
	fillBarangays()
}

var defaultBarangays = []dbmodels.Barangay{
	{Name: "Barangay Poblacion", Municipality: "San Isidro", Province: "Nueva Ecija"},
	{Name: "Barangay San Roque", Municipality: "San Isidro", Province: "Nueva Ecija"},
}

func fillBarangays() {
	var count int64
	if err := DB.Model(&dbmodels.Barangay{}).Count(&count).Error; err != nil {
		log.WithError(err).Error("barangay preload check failed")
		return
	}
	if count > 0 {
		return
	}
	for _, rec := range defaultBarangays {
		rec := rec
		if err := DB.Create(&rec).Error; err != nil {
			log.WithError(err).Error("barangay preload insert failed")
			return
		}
	}
	log.Info("barangay dictionary preloaded")
}
