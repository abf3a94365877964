package api

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/solshield/shieldcore/crypto/field"
	"github.com/solshield/shieldcore/log"
	"github.com/solshield/shieldcore/merkle"
	"github.com/solshield/shieldcore/note"
	"github.com/solshield/shieldcore/prover"
	"github.com/solshield/shieldcore/relayer"
	"github.com/solshield/shieldcore/wallet"
)

// httpWriteJSON helper function allows to write a JSON response.
func httpWriteJSON(w http.ResponseWriter, data any) {
	jdata, err := json.Marshal(data)
	if err != nil {
		ErrMarshalingServerJSONFailed.WithErr(err).Write(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	n, err := w.Write(jdata)
	if err != nil {
		log.Warnw("failed to write http response", "error", err)
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
	if log.IsDebug() {
		log.Debugw("api response", "bytes", n, "data", strings.ReplaceAll(string(jdata), "\"", ""))
	}
}

// httpWriteOK helper function allows to write an OK response.
func httpWriteOK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
}

// transferError maps the errors of a failed transfer to API errors.
func transferError(err error) Error {
	switch {
	case errors.Is(err, wallet.ErrNoNullifier):
		return ErrNoNullifier
	case errors.Is(err, wallet.ErrInsufficientFunds):
		return ErrInsufficientFunds.WithErr(err)
	case errors.Is(err, merkle.ErrTreeFull):
		return ErrTreeFull
	case errors.Is(err, prover.ErrProofTimeout):
		return ErrProofTimeout
	case errors.Is(err, prover.ErrProofGeneration), errors.Is(err, wallet.ErrInvalidProof):
		return ErrProofFailed.WithErr(err)
	case errors.Is(err, relayer.ErrNoAvailableRelayer):
		return ErrNoAvailableRelayer
	case errors.Is(err, relayer.ErrRelayerNotFound):
		return ErrRelayerNotFound
	case errors.Is(err, relayer.ErrAllRelayersFailed):
		return ErrRelayFailed.WithErr(err)
	default:
		return ErrGenericInternalServerError.WithErr(err)
	}
}

// tokenParam parses the optional token query parameter, either a decimal
// field element or a 0x prefixed mint address. A missing parameter returns
// nil.
func tokenParam(r *http.Request) (*big.Int, error) {
	s := r.URL.Query().Get(TokenQueryParam)
	if s == "" {
		return nil, nil
	}
	if strings.HasPrefix(s, "0x") {
		mint, err := hex.DecodeString(s[2:])
		if err != nil {
			return nil, fmt.Errorf("invalid mint address: %w", err)
		}
		if len(mint) != 32 {
			return nil, fmt.Errorf("invalid mint address length %d", len(mint))
		}
		return note.TokenMintFromBytes(mint), nil
	}
	return field.FromDecimal(s)
}

// uintParam parses an optional unsigned query parameter, zero if missing.
func uintParam(r *http.Request, name string, bits int) (uint64, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, bits)
}
