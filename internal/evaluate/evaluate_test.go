package evaluate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bannercheck/pkg/models"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		expected []string
		text     models.ExtractedText
		opts     Options
		want     models.VerdictStatus
		missing  []string
		warnings int
	}{
		{
			name:     "substring of block passes",
			expected: []string{"Buy Now"},
			text:     models.Block("BUY NOW TODAY"),
			want:     models.VerdictPass,
		},
		{
			name:     "absent text fails",
			expected: []string{"Buy Now"},
			text:     models.Block("Shop Today"),
			want:     models.VerdictFail,
			missing:  []string{"buy now"},
		},
		{
			name:     "block searched across line breaks",
			expected: []string{"summer sale"},
			text:     models.Block("Summer\nSale"),
			want:     models.VerdictPass,
		},
		{
			name:     "one missing string fails the pair",
			expected: []string{"Vente", "Acheter"},
			text:     models.Block("VENTE"),
			want:     models.VerdictFail,
			missing:  []string{"acheter"},
		},
		{
			name:     "every string present",
			expected: []string{"vente", "acheter"},
			text:     models.Fragments("Grande vente", "Acheter"),
			want:     models.VerdictPass,
		},
		{
			name:     "fragments are searched individually",
			expected: []string{"grande vente"},
			text:     models.Fragments("Grande", "vente"),
			want:     models.VerdictFail,
			missing:  []string{"grande vente"},
		},
		{
			name:     "joined fragments when enabled",
			expected: []string{"grande vente"},
			text:     models.Fragments("Grande", "vente"),
			opts:     Options{JoinFragments: true},
			want:     models.VerdictPass,
		},
		{
			name:     "empty expected passes with warning",
			expected: []string{"  "},
			text:     models.Block("anything"),
			want:     models.VerdictPass,
			warnings: 1,
		},
		{
			name:     "empty expected passes on empty text",
			expected: []string{""},
			text:     models.Block(""),
			want:     models.VerdictPass,
			warnings: 1,
		},
		{
			name:     "empty expected fails when configured",
			expected: []string{""},
			text:     models.Block("anything"),
			opts:     Options{FailEmptyExpected: true},
			want:     models.VerdictFail,
			warnings: 1,
		},
		{
			name:     "failed extraction fails non-empty expectation",
			expected: []string{"vente"},
			text:     models.ExtractedText{},
			want:     models.VerdictFail,
			missing:  []string{"vente"},
		},
		{
			name: "no expected strings is skipped",
			text: models.Block("Vente"),
			want: models.VerdictSkipped,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.expected, tt.text, tt.opts)
			assert.Equal(t, tt.want, got.Verdict.Status)
			assert.Equal(t, tt.missing, got.Verdict.Missing)
			assert.Len(t, got.Warnings, tt.warnings)
		})
	}
}

func TestEvaluate_Reasons(t *testing.T) {
	got := Evaluate([]string{""}, models.Block("x"), Options{FailEmptyExpected: true})
	assert.Equal(t, models.ReasonEmptyExpected, got.Verdict.Reason)

	got = Evaluate([]string{"", "vente"}, models.Block("x"), Options{FailEmptyExpected: true})
	assert.Equal(t, models.ReasonMissingText, got.Verdict.Reason)
	assert.Equal(t, []string{"vente"}, got.Verdict.Missing)

	got = Evaluate([]string{"vente"}, models.Block("x"), Options{})
	assert.Equal(t, models.ReasonMissingText, got.Verdict.Reason)

	assert.Equal(t, models.ReasonNoMatchingRow, Evaluate(nil, models.Block("x"), Options{}).Verdict.Reason)
}
