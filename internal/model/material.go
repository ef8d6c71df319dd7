package model

// Material represents an item type held in armory stock (quantity-based).
type Material struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Category          string `json:"category"`
	TotalQuantity     int    `json:"total_quantity"`
	AvailableQuantity int    `json:"available_quantity"`
}

// Issued returns the quantity currently out on open cautelas.
func (m Material) Issued() int {
	return m.TotalQuantity - m.AvailableQuantity
}
