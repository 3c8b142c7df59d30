package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Infoway protocol codes.
const (
	CodeSubscribeTrade = 10000
	CodeTradePush      = 10001
	CodeSubscribeDepth = 10003
	CodeSubscribeAck   = 10004
	CodeDepthPush      = 10005
	CodeHeartbeat      = 10010
)

type envelope struct {
	Code  int             `json:"code"`
	Trace string          `json:"trace,omitempty"`
	Msg   string          `json:"msg,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type subscribeData struct {
	Codes string `json:"codes"`
}

type request struct {
	Code  int            `json:"code"`
	Trace string         `json:"trace"`
	Data  *subscribeData `json:"data,omitempty"`
}

// flexFloat accepts a JSON number, a numeric string, or null.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("flex float %q: %w", s, err)
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

type tradeData struct {
	S string    `json:"s"`
	P flexFloat `json:"p"`
	V flexFloat `json:"v"`
	T flexFloat `json:"t"`
}

type depthData struct {
	S string        `json:"s"`
	B [][]flexFloat `json:"b"`
	A [][]flexFloat `json:"a"`
	T flexFloat     `json:"t"`
}

// top returns the best bid and ask, zero when a side is empty.
func (d depthData) top() (bid, ask float64) {
	if len(d.B) > 0 && len(d.B[0]) > 0 {
		bid = float64(d.B[0][0])
	}
	if len(d.A) > 0 && len(d.A[0]) > 0 {
		ask = float64(d.A[0][0])
	}
	return bid, ask
}

type batchDepthResponse struct {
	Ret  int         `json:"ret"`
	Msg  string      `json:"msg"`
	Data []depthData `json:"data"`
}

func subscribeMessage(code int, codes []string) ([]byte, error) {
	return json.Marshal(request{
		Code:  code,
		Trace: uuid.NewString(),
		Data:  &subscribeData{Codes: strings.Join(codes, ",")},
	})
}

func heartbeatMessage() ([]byte, error) {
	return json.Marshal(request{Code: CodeHeartbeat, Trace: uuid.NewString()})
}
