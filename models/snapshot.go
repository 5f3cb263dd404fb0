package models

// ServiceLookupRequest is published to ask the marketplace for item details.
// Field names match the marketplace wire format.
type ServiceLookupRequest struct {
	ExternalID    string `json:"serviceId"`
	CorrelationID string `json:"requestId"`
	RequesterTag  string `json:"requesterService"`
}

// ServiceSnapshot is a point-in-time copy of a marketplace catalog item,
// received over the bus either as a correlated lookup response or as an
// unsolicited broadcast update. It is never mutated after decode.
type ServiceSnapshot struct {
	CorrelationID string   `json:"requestId"`
	ErrorMessage  string   `json:"errorMessage"`
	ExternalID    string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Price         float64  `json:"price"`
	Rating        *float64 `json:"averageRating"`
	Category      string   `json:"categoryName"`
	IsActive      *bool    `json:"isActive"`
	CountryName   string   `json:"countryName"`
	CountryCode   string   `json:"countryCode"`
	ImageURL      string   `json:"primaryImageUrl"`
}

// Available reports whether the item can be added to a cart
func (s *ServiceSnapshot) Available() bool {
	return s.IsActive != nil && *s.IsActive
}

// SafeRating returns the rating, defaulting to zero when absent
func (s *ServiceSnapshot) SafeRating() float64 {
	if s.Rating == nil {
		return 0
	}
	return *s.Rating
}
