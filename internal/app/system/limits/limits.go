// internal/app/system/limits/limits.go
package limits

// Request body size limits for various features.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxJSONBodySize is the maximum size for JSON API request bodies.
	MaxJSONBodySize = 1 << 20 // 1 MB

	// MaxEvidenceUploadSize is the maximum total size for one multipart
	// evidence submission, files included.
	MaxEvidenceUploadSize = 32 << 20 // 32 MB

	// MaxEvidenceFileSize is the maximum size for a single evidence file.
	MaxEvidenceFileSize = 16 << 20 // 16 MB

	// MaxEvidenceFiles caps how many files one submission may carry.
	MaxEvidenceFiles = 10
)
