package ports

// StatusReporter receives narration from a transport about connection and
// retry events. It is purely observational: implementations must not panic
// and their calls never influence batching.
type StatusReporter interface {
	Info(msg string)
	InfoCause(msg string, cause error)
	Warning(msg string)
	WarningCause(msg string, cause error)
	Error(msg string)
	ErrorCause(msg string, cause error)
}
