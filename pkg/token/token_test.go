package token

import (
	"math/big"
	"testing"
)

func TestNetAfterFee(t *testing.T) {
	tests := []struct {
		name    string
		amount  int64
		feeBps  uint64
		maxFee  int64
		wantNet int64
		wantFee int64
	}{
		{
			name:    "one percent fee",
			amount:  1_000_000,
			feeBps:  100,
			maxFee:  1_000_000,
			wantNet: 990_000,
			wantFee: 10_000,
		},
		{
			name:    "zero bps is free",
			amount:  1_000_000,
			feeBps:  0,
			maxFee:  1_000_000,
			wantNet: 1_000_000,
			wantFee: 0,
		},
		{
			name:    "fee rounds up",
			amount:  999,
			feeBps:  100,
			maxFee:  1_000_000,
			wantNet: 989,
			wantFee: 10,
		},
		{
			name:    "cap dominates",
			amount:  1_000_000_000,
			feeBps:  500,
			maxFee:  100_000,
			wantNet: 999_900_000,
			wantFee: 100_000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net, fee := NetAfterFee(big.NewInt(tt.amount), tt.feeBps, big.NewInt(tt.maxFee))
			if net.Int64() != tt.wantNet {
				t.Errorf("net = %v, want %v", net, tt.wantNet)
			}
			if fee.Int64() != tt.wantFee {
				t.Errorf("fee = %v, want %v", fee, tt.wantFee)
			}
		})
	}
}

func TestGrossForDesiredNet(t *testing.T) {
	tests := []struct {
		name       string
		desiredNet int64
		feeBps     uint64
		maxFee     int64
		want       int64
	}{
		{
			name:       "cap dominated exact answer",
			desiredNet: 99_900_000,
			feeBps:     500,
			maxFee:     100_000,
			want:       100_000_000,
		},
		{
			name:       "zero bps passthrough",
			desiredNet: 42,
			feeBps:     0,
			maxFee:     1_000,
			want:       42,
		},
		{
			name:       "proportional rounds up",
			desiredNet: 990_000,
			feeBps:     100,
			maxFee:     1_000_000_000,
			want:       1_000_000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GrossForDesiredNet(big.NewInt(tt.desiredNet), tt.feeBps, big.NewInt(tt.maxFee))
			if got.Int64() != tt.want {
				t.Errorf("gross = %v, want %v", got, tt.want)
			}
		})
	}
}

// The gross amount must always net at least the desired amount and never
// overshoot by more than one fee unit.
func TestGrossForDesiredNetRoundTrip(t *testing.T) {
	maxFee := big.NewInt(1 << 40)
	amounts := []int64{1, 999, 1_000, 12_345, 1_000_000, 999_999_999, 123_456_789_012}

	for bps := uint64(1); bps <= 500; bps += 7 {
		for _, amount := range amounts {
			desired := big.NewInt(amount)
			gross := GrossForDesiredNet(desired, bps, maxFee)
			net, _ := NetAfterFee(gross, bps, maxFee)
			if net.Cmp(desired) < 0 {
				t.Fatalf("bps=%d desired=%d: gross %v nets only %v", bps, amount, gross, net)
			}
			// One smallest unit less must undershoot, otherwise gross
			// was not minimal.
			smaller := new(big.Int).Sub(gross, big.NewInt(1))
			if smaller.Sign() > 0 {
				smallerNet, _ := NetAfterFee(smaller, bps, maxFee)
				if smallerNet.Cmp(desired) >= 0 {
					t.Fatalf("bps=%d desired=%d: gross %v is not minimal", bps, amount, gross)
				}
			}
		}
	}
}

func TestHasDust(t *testing.T) {
	tests := []struct {
		name     string
		balance  int64
		transfer int64
		feeBps   uint64
		want     bool
	}{
		{name: "residual below threshold", balance: 1_000_500, transfer: 1_000_000, feeBps: 100, want: true},
		{name: "residual at threshold", balance: 1_001_000, transfer: 1_000_000, feeBps: 100, want: false},
		{name: "full transfer never dust", balance: 1_000_000, transfer: 1_000_000, feeBps: 100, want: false},
		{name: "zero bps never dust", balance: 1_000_500, transfer: 1_000_000, feeBps: 0, want: false},
		{name: "large residual", balance: 2_000_000, transfer: 1_000_000, feeBps: 100, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HasDust(big.NewInt(tt.balance), big.NewInt(tt.transfer), tt.feeBps)
			if got != tt.want {
				t.Errorf("HasDust = %v, want %v", got, tt.want)
			}
		})
	}
}
