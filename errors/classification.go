package errors

// ErrorClassification indicates whether provisioning can continue after an error.
type ErrorClassification string

const (
	// ClassificationRecoverable marks failures that degrade the result but do
	// not abort it, such as a failed refresh of an existing cache.
	ClassificationRecoverable ErrorClassification = "RECOVERABLE"

	// ClassificationFatal marks failures that abort the operation.
	ClassificationFatal ErrorClassification = "FATAL"
)

// IsRecoverable returns true if the classification allows the operation to continue.
func (c ErrorClassification) IsRecoverable() bool {
	return c == ClassificationRecoverable
}

// defaultClassifications maps error codes to their default classification.
var defaultClassifications = map[ErrorCode]ErrorClassification{
	CodeFetchFailed: ClassificationRecoverable,
	CodeNetwork:     ClassificationRecoverable,
	CodeTimeout:     ClassificationRecoverable,
	CodeRateLimit:   ClassificationRecoverable,

	CodeInvalidReference:       ClassificationFatal,
	CodeCloneFailed:            ClassificationFatal,
	CodeNoDefaultBranch:        ClassificationFatal,
	CodeCacheLockTimeout:       ClassificationFatal,
	CodeBranchResolutionFailed: ClassificationFatal,
	CodeWorktreeCreationFailed: ClassificationFatal,
	CodeWorktreePathConflict:   ClassificationFatal,

	CodeNotFound:        ClassificationFatal,
	CodeAlreadyExists:   ClassificationFatal,
	CodeConflict:        ClassificationFatal,
	CodeUnauthorized:    ClassificationFatal,
	CodeInvalidInput:    ClassificationFatal,
	CodeInvalidConfig:   ClassificationFatal,
	CodeExecutionFailed: ClassificationFatal,
	CodeInternal:        ClassificationFatal,
	CodeUnknown:         ClassificationFatal,
}

// getDefaultClassification returns the default classification for an error code.
// Unmapped codes are fatal.
func getDefaultClassification(code ErrorCode) ErrorClassification {
	if class, ok := defaultClassifications[code]; ok {
		return class
	}
	return ClassificationFatal
}
