package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"overtimepay/apperror"
	"overtimepay/validator"
)

// HandleError maps err to its status and envelope. Errors without a known
// code, and store failures, are logged under a trace id that is returned to
// the client in place of the cause.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		err = apperror.Validation(validationErrs.ToMap())
	}

	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		appErr = apperror.Wrap(apperror.CodeInternal, "internal server error", err)
	}

	detail := &ErrorDetail{
		Code:    string(appErr.Code),
		Message: appErr.Message,
		Details: appErr.Details,
	}

	switch appErr.Code {
	case apperror.CodeInternal, apperror.CodeDatabase:
		detail.TraceID = uuid.NewString()
		if appErr.Code == apperror.CodeInternal {
			detail.Message = "internal server error"
		}
		slog.ErrorContext(r.Context(), "request failed",
			slog.String("trace_id", detail.TraceID),
			slog.String("code", detail.Code),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}

	Failure(w, appErr.Code.HTTPStatus(), detail)
}
