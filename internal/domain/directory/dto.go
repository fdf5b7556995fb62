package directory

type CreateBuildingRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address" binding:"required"`
	City    string `json:"city"`
}

type CreateApartmentRequest struct {
	Number string `json:"number" binding:"required"`
	Floor  int    `json:"floor"`
}

type AssignResidentRequest struct {
	ResidentID  int64  `json:"resident_id" binding:"required"`
	ApartmentID *int64 `json:"apartment_id"`
	Role        string `json:"role"`
}
