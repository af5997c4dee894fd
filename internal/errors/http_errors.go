package errors

import (
	"encoding/json"
	"net/http"
)

type HTTPError struct {
	Status  int         `json:"-"`
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// HandleHTTPError maps an application error onto the JSON error envelope.
// Unexpected errors deliberately surface a fixed message: internal error
// text never crosses the trust boundary.
func HandleHTTPError(w http.ResponseWriter, err error) {
	var httpErr *HTTPError
	switch e := err.(type) {
	case *BadRequestError:
		httpErr = &HTTPError{
			Status: http.StatusBadRequest,
			Error:  e.Error(),
		}
	case *UnauthorizedError:
		httpErr = &HTTPError{
			Status: http.StatusUnauthorized,
			Error:  e.Error(),
		}
	case *NotFoundError:
		httpErr = &HTTPError{
			Status: http.StatusNotFound,
			Error:  e.Error(),
		}
	case *InvalidStateError:
		httpErr = &HTTPError{
			Status: http.StatusBadRequest,
			Error:  e.Error(),
			Code:   "invalid_state",
			Details: map[string]string{
				"currentStatus": e.Current,
			},
		}
	case *LimitExceededError:
		httpErr = &HTTPError{
			Status: http.StatusBadRequest,
			Error:  e.Error(),
			Code:   "daily_limit_exceeded",
			Details: map[string]string{
				"withdrawnToday": e.WithdrawnToday.String(),
				"remaining":      e.Remaining.String(),
				"requested":      e.Requested.String(),
			},
		}
	case *ProcessorError:
		httpErr = &HTTPError{
			Status: http.StatusBadRequest,
			Error:  e.Error(),
			Code:   "processor_error",
		}
	default:
		httpErr = &HTTPError{
			Status: http.StatusInternalServerError,
			Error:  "Internal server error",
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpErr.Status)
	json.NewEncoder(w).Encode(httpErr)
}
