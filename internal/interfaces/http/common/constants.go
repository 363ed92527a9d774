package common

const (
	// MaxUploadBytes limits multipart store submissions including the photo.
	MaxUploadBytes = 10 << 20
	// MaxFormMemory is how much of a multipart body is kept in memory before spilling to disk.
	MaxFormMemory = 1 << 20
	// MaxReviewRequestBody limits review submissions.
	MaxReviewRequestBody = 64 << 10
	// MaxSearchQueryRunes caps free-text search input.
	MaxSearchQueryRunes = 200
)
