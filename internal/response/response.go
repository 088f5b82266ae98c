package response

import (
	"encoding/json"
	"net/http"
	"time"

	"agrilink/internal/services"

	"go.uber.org/zap"
)

// ===============================
// RESPONSE CONFIGURATION
// ===============================

// Config holds configuration for the response system
type Config struct {
	PrettyJSON         bool `json:"pretty_json"`
	MaskInternalErrors bool `json:"mask_internal_errors"`
}

// DefaultConfig returns production-ready response configuration
func DefaultConfig() *Config {
	return &Config{
		PrettyJSON:         false,
		MaskInternalErrors: true,
	}
}

// ===============================
// RESPONSE TYPES
// ===============================

// Envelope is the canonical wrapper placed around every API response body.
// Exactly one of Data/Errors is meaningfully populated per response;
// Pagination implies Data is a sequence.
type Envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
	Errors     []string    `json:"errors,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Timestamp  string      `json:"timestamp"`
}

// Pagination is the pagination block for list endpoints. The envelope
// never recomputes TotalPages; it trusts the caller's values verbatim.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// Default messages used when the caller does not supply one.
const (
	MsgOperationSuccessful = "Operation successful"
	MsgOperationFailed     = "Operation failed"
	MsgValidationFailed    = "Validation failed"
	MsgResourceNotFound    = "Resource not found"
	MsgAuthRequired        = "Authentication required"
	MsgAccessDenied        = "Access denied"
	MsgResourceConflict    = "Resource conflict"
	MsgDataRetrieved       = "Data retrieved successfully"
)

// ===============================
// RESPONSE BUILDER
// ===============================

// Builder shapes every HTTP JSON body, decoupling handlers from response
// formatting. It performs exactly one write per call and never fails.
type Builder struct {
	config *Config
	logger *zap.Logger
}

// NewBuilder creates a new response builder
func NewBuilder(config *Config, logger *zap.Logger) *Builder {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{config: config, logger: logger}
}

// timestamp is generated at response-construction time, not request time.
func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// ===============================
// SUCCESS RESPONSES
// ===============================

// WriteSuccess emits a success envelope with an optional payload.
// statusCode should be 2xx; no range validation is done here.
func (b *Builder) WriteSuccess(w http.ResponseWriter, payload interface{}, message string, statusCode int) {
	if message == "" {
		message = MsgOperationSuccessful
	}
	if statusCode == 0 {
		statusCode = http.StatusOK
	}
	b.writeJSON(w, &Envelope{
		Success:   true,
		Message:   message,
		Data:      payload,
		Timestamp: timestamp(),
	}, statusCode)
}

// WriteCreated emits a success envelope with HTTP 201
func (b *Builder) WriteCreated(w http.ResponseWriter, payload interface{}, message string) {
	b.WriteSuccess(w, payload, message, http.StatusCreated)
}

// WritePaginated emits a success envelope with a pagination block.
// Always HTTP 200. The pagination block is passed through unmodified,
// even when internally inconsistent; computing it is the caller's job.
func (b *Builder) WritePaginated(w http.ResponseWriter, items interface{}, pagination Pagination, message string) {
	if message == "" {
		message = MsgDataRetrieved
	}
	b.writeJSON(w, &Envelope{
		Success:    true,
		Message:    message,
		Data:       items,
		Pagination: &pagination,
		Timestamp:  timestamp(),
	}, http.StatusOK)
}

// ===============================
// ERROR RESPONSES
// ===============================

// WriteErrorMessage emits a failure envelope with an explicit message,
// status code, and optional itemized causes.
func (b *Builder) WriteErrorMessage(w http.ResponseWriter, message string, statusCode int, errs []string) {
	if message == "" {
		message = MsgOperationFailed
	}
	if statusCode == 0 {
		statusCode = http.StatusInternalServerError
	}
	b.writeJSON(w, &Envelope{
		Success:   false,
		Message:   message,
		Errors:    errs,
		Timestamp: timestamp(),
	}, statusCode)
}

// WriteValidationError emits a 400 with per-field messages. An empty list
// is legal but uninformative; it is allowed, not rejected.
func (b *Builder) WriteValidationError(w http.ResponseWriter, errs []string, message string) {
	if message == "" {
		message = MsgValidationFailed
	}
	b.WriteErrorMessage(w, message, http.StatusBadRequest, errs)
}

// WriteNotFound emits a 404
func (b *Builder) WriteNotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = MsgResourceNotFound
	}
	b.WriteErrorMessage(w, message, http.StatusNotFound, nil)
}

// WriteUnauthorized emits a 401
func (b *Builder) WriteUnauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = MsgAuthRequired
	}
	b.WriteErrorMessage(w, message, http.StatusUnauthorized, nil)
}

// WriteForbidden emits a 403
func (b *Builder) WriteForbidden(w http.ResponseWriter, message string) {
	if message == "" {
		message = MsgAccessDenied
	}
	b.WriteErrorMessage(w, message, http.StatusForbidden, nil)
}

// WriteConflict emits a 409
func (b *Builder) WriteConflict(w http.ResponseWriter, message string) {
	if message == "" {
		message = MsgResourceConflict
	}
	b.WriteErrorMessage(w, message, http.StatusConflict, nil)
}

// WriteError translates a domain error into a failure envelope using the
// ServiceError taxonomy for the status code and message.
func (b *Builder) WriteError(w http.ResponseWriter, err error) {
	serviceErr := services.GetServiceError(err)

	message := serviceErr.Message
	if b.config.MaskInternalErrors && serviceErr.Type == "INTERNAL_ERROR" {
		message = "An internal error occurred"
	}

	b.logError(err, serviceErr)
	b.WriteErrorMessage(w, message, serviceErr.GetStatusCode(), serviceErr.Fields)
}

// ===============================
// HANDLER ADAPTER
// ===============================

// HandlerFunc is a route handler that reports failure instead of writing
// error bodies itself.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Handle adapts a HandlerFunc into an http.HandlerFunc. Every failure,
// including a panic inside the handler, is observed exactly once and
// translated into an error envelope; nothing escapes to the process.
func (b *Builder) Handle(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				b.logger.Error("Panic recovered in handler",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path),
					zap.String("method", r.Method),
				)
				b.WriteError(w, services.NewInternalError("unexpected server error"))
			}
		}()

		if err := fn(w, r); err != nil {
			b.WriteError(w, err)
		}
	}
}

// ===============================
// UTILITY METHODS
// ===============================

// writeJSON writes a JSON response with appropriate headers
func (b *Builder) writeJSON(w http.ResponseWriter, envelope *Envelope, statusCode int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(statusCode)

	encoder := json.NewEncoder(w)
	if b.config.PrettyJSON {
		encoder.SetIndent("", "  ")
	}

	if err := encoder.Encode(envelope); err != nil {
		// Headers are already written; all we can do is log.
		b.logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

// logError logs error information at a level matched to its type
func (b *Builder) logError(err error, serviceErr *services.ServiceError) {
	switch serviceErr.Type {
	case "VALIDATION_ERROR", "BUSINESS_ERROR", "NOT_FOUND", "CONFLICT":
		b.logger.Warn("Request error",
			zap.String("error_type", serviceErr.Type),
			zap.String("error_message", serviceErr.Message),
		)
	case "INTERNAL_ERROR", "PRECONDITION_FAILED":
		b.logger.Error("Internal error",
			zap.String("error_type", serviceErr.Type),
			zap.Error(err),
		)
	default:
		b.logger.Info("Request completed with error",
			zap.String("error_type", serviceErr.Type),
			zap.String("error_message", serviceErr.Message),
		)
	}
}
