package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Hello\nWorld ", "hello world"},
		{"BUY\t\tNOW", "buy now"},
		{"", ""},
		{" \n\t ", ""},
		{"Été  Soldes", "été soldes"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "input %q", tt.in)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"  Hello\nWorld ", "A  b\r\nC", "", "ÄÖÜ ß", "x"}
	for _, s := range inputs {
		once := Normalize(s)
		assert.Equal(t, once, Normalize(once), "input %q", s)
	}
}

func TestOverlap(t *testing.T) {
	a := Tokens("Summer Sale now on")
	b := Tokens("sale NOW")
	assert.Equal(t, 2, Overlap(a, b))
	assert.Equal(t, 2, Overlap(b, a))
	assert.Equal(t, 0, Overlap(a, Tokens("")))
}

func TestContains(t *testing.T) {
	assert.True(t, Contains("BUY NOW TODAY", "Buy Now"))
	assert.False(t, Contains("Shop Today", "Buy Now"))
	assert.True(t, Contains("BUY\nNOW", "buy now"))
	assert.True(t, Contains("anything", "   "))
}
