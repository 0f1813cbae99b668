package domain

type Vehicle struct {
	ID          int32  `json:"id"`
	PlateNumber string `json:"plate_number"`
	Model       string `json:"model"`
	IsAvailable bool   `json:"is_available"`
}
