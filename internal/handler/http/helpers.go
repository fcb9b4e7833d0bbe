package http

import (
	"net/http"

	apperrors "github.com/FernandoCarrilho/Ve-Joias/pkg/errors"
	"github.com/FernandoCarrilho/Ve-Joias/pkg/httputil"
)

// requireCustomerID extracts the X-Customer-ID header, writing a 400
// when it is missing. Returns false if it wrote an error response.
func requireCustomerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	customerID := r.Header.Get("X-Customer-ID")
	if customerID == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("X-Customer-ID header is required"))
		return "", false
	}
	return customerID, true
}

func invalidBody(err error) error {
	return apperrors.InvalidInput("invalid request body: " + err.Error())
}
