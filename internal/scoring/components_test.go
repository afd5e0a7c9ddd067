package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }
func bptr(v bool) *bool       { return &v }

func TestScoreFinancialAllBands(t *testing.T) {
	f := &FinancialInput{
		RatioLiquidez:       fptr(2.5),  // 100
		RatioEndeudamiento:  fptr(0.25), // 100
		RatioCoberturaDeuda: fptr(2.0),  // 100
		MargenNeto:          fptr(0.20), // 100
	}
	score, ok := scoreFinancial(f)
	require.True(t, ok)
	require.Equal(t, 100, score)
}

func TestScoreFinancialReweightsMissingBands(t *testing.T) {
	// Only liquidity and margin known: 30/20 weights re-normalized.
	f := &FinancialInput{
		RatioLiquidez: fptr(2.5),  // 100 × 30
		MargenNeto:    fptr(0.01), // 40 × 20
	}
	score, ok := scoreFinancial(f)
	require.True(t, ok)
	// (100*30 + 40*20) / 50 = 76
	require.Equal(t, 76, score)
}

func TestScoreFinancialDerivesRatios(t *testing.T) {
	// Ratios absent but raw figures present: Normalized fills them in.
	f := &FinancialInput{
		ActivosCorrientes: fptr(200),
		PasivosCorrientes: fptr(100), // liquidez 2.0 → 100
	}
	score, ok := scoreFinancial(f)
	require.True(t, ok)
	require.Equal(t, 100, score)
}

func TestScoreFinancialMissing(t *testing.T) {
	_, ok := scoreFinancial(nil)
	require.False(t, ok)

	_, ok = scoreFinancial(&FinancialInput{})
	require.False(t, ok)
}

func TestScorePaymentHistory(t *testing.T) {
	score, ok := scorePaymentHistory(&PaymentHistory{PagadasATiempo: 9, PagadasConMora: 1})
	require.True(t, ok)
	require.Equal(t, 90, score)

	// Worst delinquency over 30 days costs 10 points.
	score, ok = scorePaymentHistory(&PaymentHistory{PagadasATiempo: 9, PagadasConMora: 1, PeorMoraDias: 45})
	require.True(t, ok)
	require.Equal(t, 80, score)

	// Over 60 days costs 20.
	score, ok = scorePaymentHistory(&PaymentHistory{PagadasATiempo: 9, PagadasConMora: 1, PeorMoraDias: 90})
	require.True(t, ok)
	require.Equal(t, 70, score)
}

func TestScorePaymentHistoryEmpty(t *testing.T) {
	_, ok := scorePaymentHistory(nil)
	require.False(t, ok)

	_, ok = scorePaymentHistory(&PaymentHistory{})
	require.False(t, ok)
}

func TestScorePlatformHistoryInternalWithoutPayments(t *testing.T) {
	// A registered debtor with no history scores 0; the component stays in.
	score, ok := scorePlatformHistory(nil, true)
	require.True(t, ok)
	require.Equal(t, 0, score)
}

func TestScorePlatformHistoryExternal(t *testing.T) {
	_, ok := scorePlatformHistory(&PaymentHistory{PagadasATiempo: 5}, false)
	require.False(t, ok)
}

func TestScoreAgeSaturates(t *testing.T) {
	score, ok := scoreAge(fptr(25))
	require.True(t, ok)
	require.Equal(t, 100, score)

	score, ok = scoreAge(fptr(3.6))
	require.True(t, ok)
	require.Equal(t, 36, score)

	_, ok = scoreAge(nil)
	require.False(t, ok)
}

func TestScoreCompliance(t *testing.T) {
	f := &FinancialInput{
		AlDiaSeniat: bptr(true),
		AlDiaIVSS:   bptr(true),
		AlDiaFAOV:   bptr(false),
		AlDiaINCES:  bptr(false),
	}
	score, ok := scoreCompliance(f)
	require.True(t, ok)
	require.Equal(t, 50, score)

	// Unset flags count as unmet once any flag is known.
	score, ok = scoreCompliance(&FinancialInput{AlDiaSeniat: bptr(true)})
	require.True(t, ok)
	require.Equal(t, 25, score)

	// All four unknown: component missing.
	_, ok = scoreCompliance(&FinancialInput{})
	require.False(t, ok)
}

func TestScoreSectorFallsBackToOtro(t *testing.T) {
	unknown := Sector("MINERIA")
	score, ok := scoreSector(&unknown)
	require.True(t, ok)
	require.Equal(t, sectorScores[SectorOtro], score)
}

func TestClampScore(t *testing.T) {
	require.Equal(t, 0, clampScore(-5))
	require.Equal(t, 100, clampScore(140))
	require.Equal(t, 73, clampScore(72.5)) // half-up
	require.Equal(t, 72, clampScore(72.4))
}
