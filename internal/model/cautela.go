package model

import "time"

// Cautela represents a custody transaction: materials issued to one person.
type Cautela struct {
	ID          string        `json:"id"`
	PersonnelID string        `json:"personnel_id"`
	ArmorerID   string        `json:"armorer_id"`
	Items       []CautelaItem `json:"items"`
	IssuedAt    time.Time     `json:"issued_at"`
	Status      string        `json:"status"`
	ReturnedAt  *time.Time    `json:"returned_at,omitempty"`
	Notes       string        `json:"notes,omitempty"`
	SplitFrom   string        `json:"split_from,omitempty"`
}

// CautelaItem is one line of a cautela.
type CautelaItem struct {
	MaterialID string `json:"material_id"`
	Quantity   int    `json:"quantity"`
}

// Cautela statuses.
const (
	CautelaStatusOpen     = "OPEN"
	CautelaStatusReturned = "RETURNED"
)

// IsOpen reports whether the cautela still holds materials.
func (c *Cautela) IsOpen() bool {
	return c.Status == CautelaStatusOpen
}

// Quantity returns the quantity of a material on the cautela, or 0.
func (c *Cautela) Quantity(materialID string) int {
	for _, it := range c.Items {
		if it.MaterialID == materialID {
			return it.Quantity
		}
	}
	return 0
}
