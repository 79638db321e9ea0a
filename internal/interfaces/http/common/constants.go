package common

const (
	// MaxRequestBody limits JSON request bodies on audit endpoints.
	MaxRequestBody = 1 << 20
	// DateLayout is the calendar-date form used for due dates.
	DateLayout = "2006-01-02"
)
