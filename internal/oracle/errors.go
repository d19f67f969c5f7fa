package oracle

import "errors"

// TransportError reports that the judge service could not be reached,
// timed out, or answered with a non-success status that carried no
// recognisable error object. A decoded application-level error is a
// ProtocolError instead.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "oracle: transport: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError reports that the judge service was reached but its
// response did not conform to the contract: the body failed to parse, the
// answer fell outside the closed verdict set, or the service reported an
// application-level error.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	msg := "oracle: protocol: " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsProtocol reports whether err is (or wraps) a ProtocolError.
func IsProtocol(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}
