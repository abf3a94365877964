//nolint:lll
package api

import (
	"fmt"
	"net/http"
)

// The custom Error type satisfies the error interface.
// Error() returns a human-readable description of the error.
//
// Error codes in the 40001-49999 range are the user's fault,
// and they return HTTP Status 400 or 404 (or even 204), whatever is most appropriate.
//
// Error codes 50001-59999 are the server's fault
// and they return HTTP Status 500 or 503, or something else if appropriate.
//
// NEVER change any of the current error codes, only append new errors after the current last 4XXX or 5XXX
// If you notice there's a gap (say, error code 4010, 4011 and 4013 exist, 4012 is missing) DON'T fill in the gap,
// that code was used in the past for some error (not anymore) and shouldn't be reused.
// There's no correlation between Code and HTTP Status.
var (
	ErrResourceNotFound     = Error{Code: 40001, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("resource not found")}
	ErrMalformedBody        = Error{Code: 40004, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed JSON body")}
	ErrMalformedParam       = Error{Code: 40008, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed parameter")}
	ErrInvalidNote          = Error{Code: 40009, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid note")}
	ErrNoteNotOwned         = Error{Code: 40010, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("note not owned by this wallet")}
	ErrInsufficientFunds    = Error{Code: 40011, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("insufficient shielded funds")}
	ErrRelayerNotFound      = Error{Code: 40012, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("relayer not found")}
	ErrNoAvailableRelayer   = Error{Code: 40013, HTTPstatus: http.StatusServiceUnavailable, Err: fmt.Errorf("no available relayer")}
	ErrInvalidRelayer       = Error{Code: 40014, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid relayer")}
	ErrTreeFull             = Error{Code: 40015, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("commitment tree is full")}
	ErrInvalidTransfer      = Error{Code: 40016, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid transfer")}
	ErrInvalidShieldRequest = Error{Code: 40017, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid shield request")}
	ErrInvalidDeposit       = Error{Code: 40018, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid deposit confirmation")}
	ErrCommitmentConflict   = Error{Code: 40019, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("tree position holds another commitment")}
	ErrNoNullifier          = Error{Code: 40020, HTTPstatus: http.StatusServiceUnavailable, Err: fmt.Errorf("no nullifier scheme configured")}

	ErrMarshalingServerJSONFailed = Error{Code: 50001, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("marshaling (server-side) JSON failed")}
	ErrGenericInternalServerError = Error{Code: 50002, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("internal server error")}
	ErrProofTimeout               = Error{Code: 50003, HTTPstatus: http.StatusGatewayTimeout, Err: fmt.Errorf("proof generation timed out")}
	ErrProofFailed                = Error{Code: 50004, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("proof generation failed")}
	ErrRelayFailed                = Error{Code: 50005, HTTPstatus: http.StatusBadGateway, Err: fmt.Errorf("all relayers failed")}
)
