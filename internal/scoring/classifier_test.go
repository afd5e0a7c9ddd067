package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyRiskBoundaries(t *testing.T) {
	th := DefaultConfig().Umbrales

	cases := []struct {
		score int
		want  RiskTier
	}{
		{100, TierMuyBajo},
		{80, TierMuyBajo},
		{79, TierBajo},
		{65, TierBajo},
		{64, TierMedio},
		{50, TierMedio},
		{49, TierAlto},
		{35, TierAlto},
		{34, TierMuyAlto},
		{0, TierMuyAlto},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ClassifyRisk(tc.score, th), "score %d", tc.score)
	}
}

func TestClassifyRiskCustomThresholds(t *testing.T) {
	th := Thresholds{MuyBajo: 90, Bajo: 70, Medio: 40, Alto: 20}

	require.Equal(t, TierMuyBajo, ClassifyRisk(90, th))
	require.Equal(t, TierBajo, ClassifyRisk(89, th))
	require.Equal(t, TierMedio, ClassifyRisk(69, th))
	require.Equal(t, TierAlto, ClassifyRisk(39, th))
	require.Equal(t, TierMuyAlto, ClassifyRisk(19, th))
}
