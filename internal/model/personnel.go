package model

// Personnel represents a person who can receive custody of materials.
type Personnel struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	RegistrationNumber string `json:"registration_number"`
	Rank               string `json:"rank"`
}
