package database

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/patrimoine-ma/patrimoine-api/internal/models"
)

// Seed ensures the role groups exist and, on an empty database, loads a
// minimal reference geography plus a superuser account for bootstrap.
func Seed(db *gorm.DB) error {
	for _, name := range []string{models.GroupAdmin, models.GroupInspecteur} {
		group := models.Group{Name: name}
		if err := db.Where("name = ?", name).FirstOrCreate(&group).Error; err != nil {
			return fmt.Errorf("failed to seed group %s: %w", name, err)
		}
	}

	var userCount int64
	if err := db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		return err
	}
	if userCount == 0 {
		hash, err := bcrypt.GenerateFromPassword([]byte("changeme"), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		admin := models.User{
			Username:     "admin",
			Email:        "admin@patrimoine.ma",
			PasswordHash: string(hash),
			FullName:     "Administrateur",
			IsSuperuser:  true,
		}
		if err := db.Create(&admin).Error; err != nil {
			return fmt.Errorf("failed to seed superuser: %w", err)
		}
	}

	var regionCount int64
	if err := db.Model(&models.Region{}).Count(&regionCount).Error; err != nil {
		return err
	}
	if regionCount > 0 {
		return nil
	}

	regions := map[string]map[string][]string{
		"Rabat-Salé-Kénitra": {
			"Rabat": {"Rabat", "Touarga"},
			"Salé":  {"Salé", "Bouknadel"},
		},
		"Marrakech-Safi": {
			"Marrakech": {"Marrakech", "Mechouar Kasba"},
			"Essaouira": {"Essaouira"},
		},
		"Fès-Meknès": {
			"Fès":    {"Fès"},
			"Meknès": {"Meknès", "Moulay Idriss Zerhoun"},
		},
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for regionName, provinces := range regions {
			region := models.Region{NomRegion: regionName}
			if err := tx.Create(&region).Error; err != nil {
				return err
			}
			for provinceName, communes := range provinces {
				province := models.Province{NomProvince: provinceName, RegionID: region.ID}
				if err := tx.Create(&province).Error; err != nil {
					return err
				}
				for _, communeName := range communes {
					commune := models.Commune{NomCommune: communeName, ProvinceID: province.ID}
					if err := tx.Create(&commune).Error; err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
}
