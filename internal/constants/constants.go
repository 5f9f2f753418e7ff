// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Face matching constants
const (
	// DefaultTolerance is the maximum euclidean distance between two face
	// encodings that still counts as a match. Lower values = stricter matching
	DefaultTolerance = 0.5

	// EncodingDim is the length of a face encoding produced by the dlib ResNet model
	EncodingDim = 128

	// IoUThreshold is the overlap above which two presence detections are
	// treated as the same face
	IoUThreshold = 0.2

	// DuplicateHashDistance is the largest dHash distance at which two
	// training images are reported as copies of each other
	DuplicateHashDistance = 4
)

// Processing constants
const (
	// MaxImageSize is the maximum dimension (width or height) accepted for
	// uploaded images before they are downscaled
	MaxImageSize = 1920

	// MaxUploadSize is the maximum multipart body accepted by the recognize endpoint
	MaxUploadSize = 32 << 20

	// EncoderJPEGQuality is the quality used when re-encoding images for the encoder
	EncoderJPEGQuality = 95
)

// Report constants
const (
	// ReportTimeLayout is the timestamp layout used in attendance reports
	ReportTimeLayout = "2006-01-02 15:04:05"

	// SnapshotPrefix is the filename prefix of webcam snapshots
	SnapshotPrefix = "class-snapshot"

	// DefaultAttendanceLimit caps attendance listings without an explicit limit
	DefaultAttendanceLimit = 100
)
