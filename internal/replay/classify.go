package replay

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tturner/ocppfuzz/internal/ocpp"
	"github.com/tturner/ocppfuzz/internal/transport"
)

// Classification labels.
const (
	LabelCallResult    = "CallResult"
	LabelCallError     = "CallError"
	LabelTimeout       = "TIMEOUT"
	LabelClosedPrefix  = "CLOSED:"
	LabelExcPrefix     = "EXC:"
	LabelInvalidFormat = LabelExcPrefix + "INVALID_FORMAT"
)

// Response is the raw outcome of one exchange: a decoded message, or the
// error that prevented one.
type Response struct {
	Raw any
	Err error
}

// Classify maps a response to its label:
//
//	[3, ...]           CallResult
//	[4, id, code, ...] CallError:<code> (CallError when code is absent)
//	timeout            TIMEOUT
//	peer close         CLOSED:<close code>
//	other failure      EXC:<message>
//
// Any other message, a bare JSON string included, is labeled with its
// compact JSON encoding.
func Classify(r Response) string {
	if r.Err != nil {
		return classifyError(r.Err)
	}
	if frame, ok := ocpp.AsFrame(r.Raw); ok && len(frame) >= 1 {
		if mt, ok := ocpp.MessageTypeOf(frame[0]); ok {
			switch mt {
			case ocpp.MessageTypeCallResult:
				return LabelCallResult
			case ocpp.MessageTypeCallError:
				if len(frame) < 3 {
					return LabelCallError
				}
				if code, ok := frame[2].(string); ok {
					return LabelCallError + ":" + code
				}
				return LabelCallError + ":" + compact(frame[2])
			}
		}
	}
	return compact(r.Raw)
}

func classifyError(err error) string {
	if errors.Is(err, transport.ErrTimeout) {
		return LabelTimeout
	}
	if ce, ok := transport.IsClosed(err); ok {
		return fmt.Sprintf("%s%d", LabelClosedPrefix, ce.Code)
	}
	if errors.Is(err, ErrInvalidFormat) {
		return LabelInvalidFormat
	}
	return LabelExcPrefix + err.Error()
}

func compact(v any) string {
	data, err := ocpp.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// Category returns the coarse class of a label for summaries: CallResult,
// CallError, TIMEOUT, CLOSED, EXC or OTHER.
func Category(label string) string {
	switch {
	case label == LabelCallResult:
		return LabelCallResult
	case label == LabelCallError || strings.HasPrefix(label, LabelCallError+":"):
		return LabelCallError
	case label == LabelTimeout:
		return LabelTimeout
	case strings.HasPrefix(label, LabelClosedPrefix):
		return "CLOSED"
	case strings.HasPrefix(label, LabelExcPrefix):
		return "EXC"
	}
	return "OTHER"
}
