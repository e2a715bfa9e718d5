package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"extrato/internal/core"
	"extrato/internal/middleware/trace"
	"extrato/internal/output"
	"extrato/internal/services"
)

const maxBodyBytes = 4 << 10

type selectMonthRequest struct {
	Month *int `json:"month"`
}

type addItemRequest struct {
	ItemID string `json:"itemId"`
}

type itemsResponse struct {
	Items []string `json:"items"`
}

// stateResponse is the JSON form of a services.ViewState. Statement is the
// last settled load; Month is the selected month, which may be newer while
// Loading is true.
type stateResponse struct {
	Seq        uint64               `json:"seq"`
	Month      int                  `json:"month"`
	MonthLabel string               `json:"monthLabel"`
	Loading    bool                 `json:"loading"`
	Error      string               `json:"error,omitempty"`
	Statement  output.JSONStatement `json:"statement"`
}

func newStateResponse(st services.ViewState) stateResponse {
	resp := stateResponse{
		Seq:        st.Seq,
		Month:      int(st.Month),
		MonthLabel: core.MonthLabel(st.Month),
		Loading:    st.Loading,
		Statement:  output.NewJSONStatement(st.Statement),
	}
	if st.Err != nil {
		resp.Error = st.Err.Error()
	}
	return resp
}

type errorResponse struct {
	Error     string `json:"error"`
	Status    int    `json:"status"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Status:    status,
		RequestID: trace.GetRequestID(r.Context()),
	})
}

// decodeJSON reads a single small JSON object, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
