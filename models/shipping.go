package models

type Settlement struct {
	Label string `json:"label"`
	Ref   string `json:"ref"`
}

type WarehousesResponse struct {
	Success    bool     `json:"success"`
	Warehouses []string `json:"warehouses"`
}
