package mycontentapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/desain-gratis/media-console/delivery/mycontent-api/mycontent"
	"github.com/desain-gratis/media-console/delivery/mycontent-api/storage/content"
	"github.com/desain-gratis/media-console/types/entity"
	types "github.com/desain-gratis/media-console/types/http"
)

// MutationResult is the success payload of create, update, and delete
type MutationResult struct {
	Record   *entity.Record `json:"record"`
	Warnings []string       `json:"warnings,omitempty"`
}

func toMutationResult(result *mycontent.Result) *MutationResult {
	out := &MutationResult{Record: result.Record}
	for _, w := range result.Warnings {
		out.Warnings = append(out.Warnings, w.Error())
	}
	return out
}

// errorResponse maps lifecycle errors to a status code and error envelope
func errorResponse(err error) (int, *types.CommonError) {
	var verr *mycontent.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, &types.CommonError{
			Errors: []types.Error{
				{HTTPCode: http.StatusBadRequest, Code: "VALIDATION_ERROR", Message: verr.Error(), Fields: verr.Missing},
			},
		}
	case errors.Is(err, mycontent.ErrValidation):
		return http.StatusBadRequest, types.NewError(http.StatusBadRequest, "BAD_REQUEST", err.Error())
	case errors.Is(err, mycontent.ErrNotFound):
		return http.StatusNotFound, types.NewError(http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, mycontent.ErrUpload):
		return http.StatusBadGateway, types.NewError(http.StatusBadGateway, "UPLOAD_FAILED", err.Error())
	case errors.Is(err, mycontent.ErrDelete):
		return http.StatusBadGateway, types.NewError(http.StatusBadGateway, "DELETE_FAILED", err.Error())
	case errors.Is(err, mycontent.ErrPersist):
		return http.StatusInternalServerError, types.NewError(http.StatusInternalServerError, "PERSIST_FAILED", err.Error())
	case errors.Is(err, content.ErrInvalidKey):
		return http.StatusBadRequest, types.NewError(http.StatusBadRequest, "BAD_REQUEST", err.Error())
	default:
		return http.StatusInternalServerError, types.NewError(http.StatusInternalServerError, "SERVER_ERROR", "server error")
	}
}

func handleUsecaseError(w http.ResponseWriter, err error) {
	status, errUC := errorResponse(err)
	if status >= http.StatusInternalServerError {
		log.Err(err).Msg("failed to serve request")
	}
	writeResponse(w, status, &types.CommonResponse{Error: errUC})
}

func writeResponse(w http.ResponseWriter, status int, resp *types.CommonResponse) {
	payload, err := json.Marshal(resp)
	if err != nil {
		log.Err(err).Msgf("Failed to parse payload")
		status = http.StatusInternalServerError
		payload = types.SerializeError(types.NewError(status, "SERVER_ERROR", "Failed to parse response"))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}
