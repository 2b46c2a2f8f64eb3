package httpx

import (
	"net/http"

	"github.com/volunteerhub/portal/internal/shared"
)

// StatusFor maps an error kind to the status returned by the console API.
// Backend failures keep the backend's status when there was one.
func StatusFor(err error) int {
	apiErr, ok := shared.AsError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch apiErr.Kind {
	case shared.KindValidation:
		return http.StatusBadRequest
	case shared.KindAuthRejected:
		return http.StatusUnauthorized
	case shared.KindRoleMismatch:
		return http.StatusForbidden
	case shared.KindStorageUnavailable:
		return http.StatusServiceUnavailable
	case shared.KindNetworkOrServer:
		if apiErr.StatusCode >= 400 && apiErr.StatusCode <= 599 {
			return apiErr.StatusCode
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// RespondError maps portal errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	apiErr, ok := shared.AsError(err)
	if !ok {
		Problem(w, status, "Internal Error", "")
		return
	}
	WriteProblem(w, ProblemDetail{
		Title:  http.StatusText(status),
		Status: status,
		Detail: apiErr.Message,
		Kind:   apiErr.Kind.String(),
		Fields: apiErr.Fields,
	})
}
