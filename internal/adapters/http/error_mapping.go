package httpadapter

import (
	"net/http"

	"github.com/kirillkom/resume-tailor/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrNotConfirmed):
		return http.StatusPreconditionRequired
	case domain.IsKind(err, domain.ErrBusy),
		domain.IsKind(err, domain.ErrInvalidTransition),
		domain.IsKind(err, domain.ErrStale):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrService),
		domain.IsKind(err, domain.ErrNetwork),
		domain.IsKind(err, domain.ErrAnalysis),
		domain.IsKind(err, domain.ErrKeywordApplication),
		domain.IsKind(err, domain.ErrExport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
