// Package types defines core data types and error codes for the docx translator application.
package types

// Config 应用配置
type Config struct {
	OpenAIAPIKey  string `json:"openai_api_key"`
	OpenAIBaseURL string `json:"openai_base_url"` // OpenAI 兼容 API 的 Base URL
	OpenAIModel   string `json:"openai_model"`
	// TargetLanguage is the language translated text is produced in,
	// e.g. "Simplified Chinese".
	TargetLanguage string `json:"target_language"`
	// MaxChunkChars caps the size of a single text chunk sent to the
	// translation backend, in bytes of UTF-8 text.
	MaxChunkChars int `json:"max_chunk_chars"`
	// Concurrency is the number of translation units in flight at once.
	Concurrency int `json:"concurrency"`
	// OutputSuffix is appended to the input file stem to derive the
	// output path, e.g. "report.docx" -> "report_zh.docx".
	OutputSuffix string `json:"output_suffix"`
	// FallbackFont is applied to every translated run so CJK output
	// renders with a proper font regardless of the source formatting.
	FallbackFont string `json:"fallback_font"`
	// ConvertLegacyImages enables EMF/WMF to PNG conversion through an
	// external tool. When false such images are embedded unmodified.
	ConvertLegacyImages bool `json:"convert_legacy_images"`
}

// ErrorCode 错误代码枚举
type ErrorCode string

const (
	ErrOpenDocument     ErrorCode = "OPEN_DOCUMENT_ERROR"
	ErrSaveDocument     ErrorCode = "SAVE_DOCUMENT_ERROR"
	ErrResourceNotFound ErrorCode = "RESOURCE_NOT_FOUND"
	ErrUnsupportedImage ErrorCode = "UNSUPPORTED_IMAGE"
	ErrNetwork          ErrorCode = "NETWORK_ERROR"
	ErrAPICall          ErrorCode = "API_CALL_ERROR"
	ErrAPIRateLimit     ErrorCode = "API_RATE_LIMIT"
	ErrConvert          ErrorCode = "CONVERT_ERROR"
	ErrInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrConfig           ErrorCode = "CONFIG_ERROR"
	ErrInternal         ErrorCode = "INTERNAL_ERROR"
)

// AppError 应用错误
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface for AppError
func (e *AppError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// Unwrap returns the underlying cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new AppError with the given code, message, and optional cause
func NewAppError(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewAppErrorWithDetails creates a new AppError with details
func NewAppErrorWithDetails(code ErrorCode, message, details string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// CodeOf returns the ErrorCode of err if it is an AppError, or ErrInternal otherwise.
func CodeOf(err error) ErrorCode {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return ErrInternal
}
