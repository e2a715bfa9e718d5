package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"extrato/internal/core"
)

// LoadRequestMessage asks the worker to load one month. Empty ItemIDs means
// the worker falls back to its item registry.
type LoadRequestMessage struct {
	ID          string    `json:"id"`
	Month       int       `json:"month"`
	ItemIDs     []string  `json:"itemIds,omitempty"`
	Export      bool      `json:"export,omitempty"`
	RequestedAt time.Time `json:"requestedAt"`
}

// NewLoadRequest creates a request with a fresh id.
func NewLoadRequest(month int, itemIDs []string, export bool) *LoadRequestMessage {
	return &LoadRequestMessage{
		ID:          uuid.NewString(),
		Month:       month,
		ItemIDs:     itemIDs,
		Export:      export,
		RequestedAt: time.Now(),
	}
}

func (m *LoadRequestMessage) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("load request: missing id")
	}
	return core.ValidateMonth(m.Month)
}

func (m *LoadRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LoadRequestMessageFromJSON(data []byte) (*LoadRequestMessage, error) {
	var msg LoadRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// MonthLoadedMessage reports the outcome of a LoadRequestMessage. Totals are
// decimal strings; Error is set when the load failed.
type MonthLoadedMessage struct {
	RequestID    string    `json:"requestId"`
	Year         int       `json:"year"`
	Month        int       `json:"month"`
	Transactions int       `json:"transactions"`
	TotalIncome  string    `json:"totalIncome"`
	TotalExpense string    `json:"totalExpense"`
	Sheet        string    `json:"sheet,omitempty"`
	Error        string    `json:"error,omitempty"`
	LoadedAt     time.Time `json:"loadedAt"`
}

func NewMonthLoaded(requestID string, st core.Statement) *MonthLoadedMessage {
	return &MonthLoadedMessage{
		RequestID:    requestID,
		Year:         st.Year,
		Month:        int(st.Month),
		Transactions: len(st.Transactions),
		TotalIncome:  st.TotalIncome.StringFixed(2),
		TotalExpense: st.TotalExpense.StringFixed(2),
		LoadedAt:     time.Now(),
	}
}

func NewMonthLoadFailed(requestID string, year, month int, err error) *MonthLoadedMessage {
	return &MonthLoadedMessage{
		RequestID:    requestID,
		Year:         year,
		Month:        month,
		TotalIncome:  "0.00",
		TotalExpense: "0.00",
		Error:        err.Error(),
		LoadedAt:     time.Now(),
	}
}

func (m *MonthLoadedMessage) Failed() bool { return m.Error != "" }

func (m *MonthLoadedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MonthLoadedMessageFromJSON(data []byte) (*MonthLoadedMessage, error) {
	var msg MonthLoadedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
