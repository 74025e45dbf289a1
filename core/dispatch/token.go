package dispatch

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

var ErrInvalidToken = errors.New("invalid accept token")

type acceptToken struct {
	OrderID int64 `json:"o"`
	StaffID int64 `json:"s"`
}

// EncodeToken builds the opaque accept action sent with a proposal.
func EncodeToken(orderID, staffID int64) string {
	data, _ := json.Marshal(acceptToken{OrderID: orderID, StaffID: staffID})
	return base64.RawURLEncoding.EncodeToString(data)
}

func DecodeToken(token string) (orderID, staffID int64, err error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, 0, ErrInvalidToken
	}

	var t acceptToken
	if err := json.Unmarshal(data, &t); err != nil || t.OrderID <= 0 || t.StaffID <= 0 {
		return 0, 0, ErrInvalidToken
	}

	return t.OrderID, t.StaffID, nil
}
