package types

import "strings"

// ShippingInfo is the delivery contact captured at order creation. All five
// fields are mandatory before an order may be placed.
type ShippingInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	City    string `json:"city"`
	Phone   string `json:"phone"`
}

// MissingFields returns the names of required fields that are empty.
func (s ShippingInfo) MissingFields() []string {
	var missing []string
	for _, field := range []struct {
		name  string
		value string
	}{
		{"name", s.Name},
		{"email", s.Email},
		{"address", s.Address},
		{"city", s.City},
		{"phone", s.Phone},
	} {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	return missing
}
