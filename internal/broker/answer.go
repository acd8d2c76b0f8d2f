package broker

import (
	"encoding/json"
	"fmt"
)

// wireValue accepts the loosely typed values frontends send back: the answer
// fields arrive either as strings or, for the cancellation sentinel, as the
// bare number -1.
type wireValue struct {
	raw json.RawMessage
}

func (v *wireValue) UnmarshalJSON(b []byte) error {
	v.raw = append([]byte(nil), b...)
	return nil
}

// text normalizes the value to a string. Numbers keep their literal form, so
// the -1 sentinel becomes "-1".
func (v wireValue) text() (string, bool) {
	if len(v.raw) == 0 {
		return "", false
	}
	if v.raw[0] == '"' {
		var s string
		if err := json.Unmarshal(v.raw, &s); err != nil {
			return "", false
		}
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(v.raw, &n); err != nil {
		return "", false
	}
	return n.String(), true
}

const cancelSentinel = "-1"

// decodeAnswer validates a response payload against the request kind. A
// malformed payload is ErrBadAnswer; the cancellation sentinel is the typed
// ErrCancelled, never an answer value.
func decodeAnswer(req Request, raw json.RawMessage) (Answer, error) {
	switch req.Kind {
	case KindChooseAccount:
		var body struct {
			AccountID wireValue `json:"accountId"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return Answer{}, fmt.Errorf("%w: %v", ErrBadAnswer, err)
		}
		id, ok := body.AccountID.text()
		if !ok {
			return Answer{}, fmt.Errorf("%w: missing accountId", ErrBadAnswer)
		}
		if id == cancelSentinel {
			return Answer{}, ErrCancelled
		}
		for _, candidate := range req.Accounts {
			if candidate.ID == id {
				return Answer{AccountID: id}, nil
			}
		}
		return Answer{}, fmt.Errorf("%w: accountId not among offered candidates", ErrBadAnswer)

	case KindRequestPayeeAccNo:
		var body struct {
			AccountNumber wireValue `json:"accountNumber"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return Answer{}, fmt.Errorf("%w: %v", ErrBadAnswer, err)
		}
		number, ok := body.AccountNumber.text()
		if !ok {
			return Answer{}, fmt.Errorf("%w: missing accountNumber", ErrBadAnswer)
		}
		if number == cancelSentinel {
			return Answer{}, ErrCancelled
		}
		if number == "" {
			return Answer{}, fmt.Errorf("%w: empty accountNumber", ErrBadAnswer)
		}
		return Answer{AccountNumber: number}, nil

	case KindRequestTPIN:
		var body struct {
			TPIN wireValue `json:"tpin"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return Answer{}, fmt.Errorf("%w: %v", ErrBadAnswer, err)
		}
		pin, ok := body.TPIN.text()
		if !ok {
			return Answer{}, fmt.Errorf("%w: missing tpin", ErrBadAnswer)
		}
		if pin == cancelSentinel {
			return Answer{}, ErrCancelled
		}
		if !validTPIN(pin) {
			return Answer{}, fmt.Errorf("%w: tpin must be exactly 4 digits", ErrBadAnswer)
		}
		return Answer{TPIN: pin}, nil

	default:
		return Answer{}, fmt.Errorf("unknown ask kind %q", req.Kind)
	}
}

func validTPIN(pin string) bool {
	if len(pin) != 4 {
		return false
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
