package dto

import "github.com/patrimoine-ma/patrimoine-api/internal/models"

// RegionResponse is a reference region entry.
type RegionResponse struct {
	ID        uint   `json:"id"`
	NomRegion string `json:"nom_region"`
}

// ProvinceResponse is a reference province entry.
type ProvinceResponse struct {
	ID          uint   `json:"id"`
	NomProvince string `json:"nom_province"`
}

// CommuneResponse is a reference commune entry.
type CommuneResponse struct {
	ID         uint   `json:"id"`
	NomCommune string `json:"nom_commune"`
}

// NewRegionResponses converts region models for the lookup API.
func NewRegionResponses(regions []models.Region) []RegionResponse {
	out := make([]RegionResponse, 0, len(regions))
	for _, region := range regions {
		out = append(out, RegionResponse{ID: region.ID, NomRegion: region.NomRegion})
	}
	return out
}

// NewProvinceResponses converts province models for the lookup API.
func NewProvinceResponses(provinces []models.Province) []ProvinceResponse {
	out := make([]ProvinceResponse, 0, len(provinces))
	for _, province := range provinces {
		out = append(out, ProvinceResponse{ID: province.ID, NomProvince: province.NomProvince})
	}
	return out
}

// NewCommuneResponses converts commune models for the lookup API.
func NewCommuneResponses(communes []models.Commune) []CommuneResponse {
	out := make([]CommuneResponse, 0, len(communes))
	for _, commune := range communes {
		out = append(out, CommuneResponse{ID: commune.ID, NomCommune: commune.NomCommune})
	}
	return out
}
