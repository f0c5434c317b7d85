package model

// Placeholders returned while no usable data exists
const (
	MessageAwaitingData = "Awaiting data"
	PlaceholderCode     = "Awaiting code..."
)

// StatusResponse answers GET /latest/status
type StatusResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// PathResponse answers GET /latest/path
type PathResponse struct {
	Path Path `json:"path"`
}

// CodeResponse answers GET /latest/code
type CodeResponse struct {
	KAREL string `json:"karel"`
	KRL   string `json:"krl"`
	RAPID string `json:"rapid"`
}

// Set assigns the program text for a dialect
func (r *CodeResponse) Set(d Dialect, text string) {
	switch d {
	case DialectKAREL:
		r.KAREL = text
	case DialectKRL:
		r.KRL = text
	case DialectRAPID:
		r.RAPID = text
	}
}

// PlaceholderCodeResponse returns the "awaiting" payload for every dialect
func PlaceholderCodeResponse() CodeResponse {
	return CodeResponse{
		KAREL: PlaceholderCode,
		KRL:   PlaceholderCode,
		RAPID: PlaceholderCode,
	}
}
