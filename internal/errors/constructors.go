package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *AssistError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigRequired(field string) *AssistError {
	return New(CategoryConfig, SeverityFatal, "required configuration missing").
		WithContext("field", field)
}

func ValidationFailed(field, reason string) *AssistError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Model errors

func LLMRequestError(model string, cause error) *AssistError {
	return WrapRetryable(cause, CategoryLLM, SeverityError, "model request failed").
		WithContext("model", model)
}

func LLMStreamInterrupted(cause error) *AssistError {
	return Wrap(cause, CategoryLLM, SeverityWarning, "response stream interrupted")
}

func LLMAuthError(cause error) *AssistError {
	return Wrap(cause, CategoryAuth, SeverityFatal, "model provider rejected credentials")
}

// Marketplace errors

func MarketplaceUnavailable(cause error) *AssistError {
	return WrapRetryable(cause, CategoryMarketplace, SeverityWarning, "product search unavailable")
}

func MarketplaceAuthError(cause error) *AssistError {
	return Wrap(cause, CategoryAuth, SeverityError, "product search credentials rejected")
}

func MarketplaceThrottled(cause error) *AssistError {
	return WrapRetryable(cause, CategoryMarketplace, SeverityWarning, "product search rate limited")
}

func MissingKeyword() *AssistError {
	return ValidationError("keyword parameter is required")
}

// Store errors

func StoreError(operation string, cause error) *AssistError {
	return Wrap(cause, CategoryStore, SeverityError, "store operation failed").
		WithContext("operation", operation)
}

func RecordNotFound(kind, id string) *AssistError {
	return New(CategoryNotFound, SeverityWarning, "record not found").
		WithContext("kind", kind).
		WithContext("id", id)
}

// Export errors

func ExportError(format string, cause error) *AssistError {
	return Wrap(cause, CategoryExport, SeverityError, "transcript export failed").
		WithContext("format", format)
}

// Network errors

func NetworkTimeout(url string, cause error) *AssistError {
	return WrapRetryable(cause, CategoryNetwork, SeverityWarning, "network timeout").
		WithContext("url", url)
}

// Internal errors

func InternalError(message string, cause error) *AssistError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
