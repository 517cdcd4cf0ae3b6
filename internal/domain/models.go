package domain

import (
	"time"
)

// MappingRecord is a persisted short code to target URL association
type MappingRecord struct {
	ID          int64      `json:"id"`
	ShortCode   string     `json:"short_code"`
	URL         string     `json:"url"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
	AccessCount int64      `json:"access_count"`
}

// MappingView is the public projection returned when a short code is resolved.
// It deliberately omits the access count.
type MappingView struct {
	URL       string  `json:"url"`
	ShortCode string  `json:"short_code"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt *string `json:"updated_at"`
}

// NewMappingView projects a record into its display form
func NewMappingView(record *MappingRecord) *MappingView {
	view := &MappingView{
		URL:       record.URL,
		ShortCode: record.ShortCode,
		CreatedAt: FormatTime(record.CreatedAt),
	}
	if record.UpdatedAt != nil {
		updated := FormatTime(*record.UpdatedAt)
		view.UpdatedAt = &updated
	}
	return view
}

// FormatTime renders timestamps the way every API response does
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// CreateMappingRequest represents the request to create a mapping
type CreateMappingRequest struct {
	URL       string `json:"url"`
	ShortCode string `json:"short_code"`
}

// UpdateMappingRequest represents the request to change a mapping's target URL
type UpdateMappingRequest struct {
	URL string `json:"url"`
}

// MessageResponse is the body of acknowledgements and errors
type MessageResponse struct {
	Message string `json:"message"`
}
