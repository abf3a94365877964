package api

import (
	"math/big"
	"net/http/httptest"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/solshield/shieldcore/crypto/field"
	"github.com/solshield/shieldcore/note"
)

func TestTokenParam(t *testing.T) {
	c := qt.New(t)
	parse := func(query string) (*big.Int, error) {
		return tokenParam(httptest.NewRequest("GET", BalanceEndpoint+query, nil))
	}

	mint, err := parse("")
	c.Assert(err, qt.IsNil)
	c.Assert(mint, qt.IsNil)

	mint, err = parse("?token=12345")
	c.Assert(err, qt.IsNil)
	c.Assert(mint.Int64(), qt.Equals, int64(12345))

	// mint addresses above the modulus are reduced into the field
	addr := strings.Repeat("ff", 32)
	mint, err = parse("?token=0x" + addr)
	c.Assert(err, qt.IsNil)
	c.Assert(field.IsValid(mint), qt.IsTrue)
	raw, _ := new(big.Int).SetString(addr, 16)
	c.Assert(mint.Cmp(new(big.Int).Mod(raw, field.Modulus)), qt.Equals, 0)
	c.Assert(mint.Cmp(note.TokenMintFromBytes(raw.Bytes())), qt.Equals, 0)

	_, err = parse("?token=0x" + strings.Repeat("ab", 31))
	c.Assert(err, qt.ErrorMatches, "invalid mint address length 31")
	_, err = parse("?token=0xzz")
	c.Assert(err, qt.ErrorMatches, "invalid mint address: .*")
}
