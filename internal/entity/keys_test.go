package entity_test

import (
	"LandLedger/internal/entity"
	"math/big"
	"testing"
)

func TestKeyFormats(t *testing.T) {
	tokenID := big.NewInt(5)

	cases := []struct {
		name string
		got  string
		want string
	}{
		{"land", entity.LandID(tokenID), "5"},
		{"ask", entity.AskID("5", "0xa"), "5-0xa"},
		{"bid", entity.BidID("5", "0xb"), "5-0xb"},
		{"log scoped", entity.LogScopedID("5", "0xt", 7), "5-0xt-7"},
		{"token ref", entity.TokenRef("0xc", tokenID), "0xc-5"},
		{"listing", entity.ReserveListingID("0xc", tokenID, big.NewInt(2)), "0xc-5-2"},
		{"listing bid", entity.ReserveListingBidID("0xc-5-2", "0xt", 3), "0xc-5-2-0xt-3"},
	}

	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, tc.got, tc.want)
		}
	}
}

func TestLargeTokenIDRendersBase10(t *testing.T) {
	id, _ := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)
	if got := entity.LandID(id); got != id.Text(10) {
		t.Errorf("got %q, want base-10 rendering", got)
	}
}

func TestListingActive(t *testing.T) {
	l := &entity.ReserveListing{Status: entity.ListingPending}
	if l.Active() {
		t.Error("listing without first bid must not be active")
	}
	l.FirstBidTime = 1000
	if !l.Active() {
		t.Error("listing with first bid must be active")
	}
	l.Status = entity.ListingFinished
	if l.Active() {
		t.Error("finished listing must not be active")
	}
}
