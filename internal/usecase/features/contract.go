package features

// Recorder receives normalization and validation outcomes.
type Recorder interface {
	Normalized(fallbacks []string)
	Validated(valid bool, violated []string)
}
