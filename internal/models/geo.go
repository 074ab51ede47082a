package models

// Region is a top-level administrative region.
type Region struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	NomRegion  string `gorm:"size:150;uniqueIndex;not null" json:"nom_region"`
	CodeRegion string `gorm:"size:10" json:"code_region"`
}

// Province types.
const (
	ProvinceTypeProvince   = "Province"
	ProvinceTypePrefecture = "Préfecture"
)

// Province is an administrative province or prefecture inside a region.
type Province struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	NomProvince  string `gorm:"size:150;not null;uniqueIndex:uniq_province_region" json:"nom_province"`
	CodeProvince string `gorm:"size:10" json:"code_province"`
	TypeProvince string `gorm:"size:50;not null" json:"type_province"`
	RegionID     uint   `gorm:"not null;uniqueIndex:uniq_province_region" json:"region_id"`
	Region       Region `json:"-"`
}

// Commune types.
const (
	CommuneTypeUrbaine = "Urbaine"
	CommuneTypeRurale  = "Rurale"
)

// Commune is the smallest administrative unit heritage sites attach to.
type Commune struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	NomCommune  string   `gorm:"size:150;not null;uniqueIndex:uniq_commune_province" json:"nom_commune"`
	CodeCommune string   `gorm:"size:10" json:"code_commune"`
	TypeCommune string   `gorm:"size:50;not null" json:"type_commune"`
	ProvinceID  uint     `gorm:"not null;uniqueIndex:uniq_commune_province" json:"province_id"`
	Province    Province `json:"-"`
}
