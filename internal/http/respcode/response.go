package respcode

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// APIResponse is the success envelope. Data must serialize to a JSON object;
// its fields are flattened next to responseCode and responseMessage.
type APIResponse[T any] struct {
	ResponseCode    string
	ResponseMessage string
	Data            T
}

// Success builds the 200 envelope for scenario s.
func Success[T any](s Scenario, data T) APIResponse[T] {
	return APIResponse[T]{
		ResponseCode:    Compose(200, s, CaseGeneral),
		ResponseMessage: MessageSuccess,
		Data:            data,
	}
}

// MarshalJSON writes responseCode and responseMessage first, followed by the
// fields of Data.
func (r APIResponse[T]) MarshalJSON() ([]byte, error) {
	head, err := json.Marshal(errorBody{ResponseCode: r.ResponseCode, ResponseMessage: r.ResponseMessage})
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(r.Data)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte("{}")) {
		return head, nil
	}
	if len(data) < 2 || data[0] != '{' {
		return nil, fmt.Errorf("respcode: response data must be a JSON object, got %.20s", data)
	}

	out := make([]byte, 0, len(head)+len(data))
	out = append(out, head[:len(head)-1]...)
	out = append(out, ',')
	out = append(out, data[1:]...)
	return out, nil
}
