package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// EstimateStatus represents the status of an estimate
type EstimateStatus int

const (
	EstimateStatusDraft    EstimateStatus = 0
	EstimateStatusSent     EstimateStatus = 1
	EstimateStatusAccepted EstimateStatus = 2
	EstimateStatusRejected EstimateStatus = 3
)

var estimateStatusNames = [...]string{"draft", "sent", "accepted", "rejected"}

func (s EstimateStatus) String() string {
	if int(s) < 0 || int(s) >= len(estimateStatusNames) {
		return "unknown"
	}
	return estimateStatusNames[s]
}

// ParseEstimateStatus converts a wire name into an EstimateStatus
func ParseEstimateStatus(str string) (EstimateStatus, error) {
	for i, name := range estimateStatusNames {
		if name == str {
			return EstimateStatus(i), nil
		}
	}
	return EstimateStatusDraft, fmt.Errorf("unknown estimate status %q", str)
}

func (s EstimateStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *EstimateStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = EstimateStatus(i)
		return nil
	}
	parsed, err := ParseEstimateStatus(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s EstimateStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *EstimateStatus) Scan(value interface{}) error {
	if value == nil {
		*s = EstimateStatusDraft
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = EstimateStatus(v)
	case int:
		*s = EstimateStatus(v)
	default:
		return fmt.Errorf("cannot scan %T into EstimateStatus", value)
	}
	return nil
}
