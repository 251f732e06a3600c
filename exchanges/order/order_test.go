package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTerminal(t *testing.T) {
	t.Parallel()
	cases := map[Status]bool{
		Pending:  false,
		Open:     false,
		Closed:   true,
		Canceled: true,
		Rejected: true,
		Expired:  true,
	}
	for status, want := range cases {
		assert.Equalf(t, want, IsTerminal(status), "status %s", status)
	}
}

func TestKeyIsComparable(t *testing.T) {
	t.Parallel()
	set := map[Key]struct{}{}
	k1 := Key{ClientOrderID: "cid-1", Symbol: "BTC/USDT"}
	k2 := Key{ClientOrderID: "cid-1", Symbol: "BTC/USDT"}
	set[k1] = struct{}{}
	_, ok := set[k2]
	assert.True(t, ok)
}
