package replay

import (
	"errors"

	"github.com/tturner/ocppfuzz/internal/ocpp"
)

// ErrInvalidFormat marks an input that is not a frame of at least three
// elements. It is never transmitted.
var ErrInvalidFormat = errors.New("INVALID_FORMAT")

// PrepareFrame returns the frame to transmit for v. The correlation id is
// replaced with newUID() when it is the placeholder, or when replaceUID is
// set and the id is a string; other ids are sent as is. v is never modified.
func PrepareFrame(v any, replaceUID bool, newUID ocpp.UIDGenerator) (ocpp.Frame, error) {
	in, ok := ocpp.AsFrame(v)
	if !ok || !in.Valid() {
		return nil, ErrInvalidFormat
	}
	frame := make(ocpp.Frame, len(in))
	copy(frame, in)

	id, isString := frame[1].(string)
	if id == ocpp.UIDPlaceholder || (replaceUID && isString) {
		if newUID == nil {
			newUID = ocpp.NewUID
		}
		frame[1] = newUID()
	}
	return frame, nil
}
