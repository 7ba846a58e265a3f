package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusNext(t *testing.T) {
	cases := []struct {
		from Status
		want Status
		ok   bool
	}{
		{StatusReceived, StatusVoucherRedeemed, true},
		{StatusVoucherRedeemed, StatusInPreparation, true},
		{StatusInPreparation, StatusServed, true},
		{StatusServed, "", false},
		{Status("unknown"), "", false},
	}
	for _, tc := range cases {
		got, ok := tc.from.Next()
		assert.Equal(t, tc.want, got, tc.from)
		assert.Equal(t, tc.ok, ok, tc.from)
	}
}

func TestStatusHelpers(t *testing.T) {
	assert.Equal(t, StatusReceived, InitialStatus())
	assert.True(t, StatusServed.IsFinal())
	assert.False(t, StatusInPreparation.IsFinal())
	assert.True(t, StatusVoucherRedeemed.IsKnown())
	assert.False(t, Status("cooking").IsKnown())
	assert.Equal(t, "In preparation", StatusInPreparation.Label())
	assert.Equal(t, "cooking", Status("cooking").Label())
}
