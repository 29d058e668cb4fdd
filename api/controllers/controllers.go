package controllers

import (
	"math"
	"net/http"

	"github.com/angelmondragon/soundmarket/api/responses"
	"github.com/angelmondragon/soundmarket/pkg/logger"
)

const maxInt32 = math.MaxInt32

// writeResult writes data, or err when the service failed.
func writeResult(w http.ResponseWriter, r *http.Request, logg *logger.Logger, data any, err error) {
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, data)
}
