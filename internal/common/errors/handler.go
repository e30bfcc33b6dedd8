// internal/common/errors/handler.go
package errors

// ErrorHandler normalizes and logs failures at a fetch boundary.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleFetchError converts err into a StandardError and logs it once.
func (h *ErrorHandler) HandleFetchError(collection string, err error) *StandardError {
	stdErr := Normalize(err)
	if stdErr == nil {
		return nil
	}
	h.logError(collection, stdErr)
	return stdErr
}

func (h *ErrorHandler) logError(collection string, stdErr *StandardError) {
	if h.logger == nil {
		return
	}
	h.logger.Error("Fetch failed", map[string]interface{}{
		"collection":    collection,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	})
}
