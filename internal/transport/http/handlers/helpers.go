package handlers

import (
	"encoding/json"
	"net/http"

	httperrors "github.com/pkaiserui/VagusNerveReset/internal/transport/http/errors"
)

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeBadRequest(w http.ResponseWriter, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.NewAPIError(message))
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.NewAPIError(message))
}

func writeInternal(w http.ResponseWriter, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.NewAPIError(message))
}

func writeBadGateway(w http.ResponseWriter, message string) {
	httperrors.Write(w, http.StatusBadGateway, httperrors.NewAPIError(message))
}
