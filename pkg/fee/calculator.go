// Package fee computes the exact fee a user pays so the sponsor recovers
// every cost of a sponsored swap. All arithmetic is integer-exact and any
// rounding favors the sponsor.
package fee

import (
	"context"
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"

	"swapd/pkg/chain"
	"swapd/pkg/token"
	"swapd/pkg/types"
)

// Components is the cost breakdown, all values in lamports regardless of
// the final settlement token.
type Components struct {
	SolanaGas   *big.Int
	SolanaRent  *big.Int
	ProviderFee *big.Int
	Markup      *big.Int
	FixedBuffer *big.Int
}

// Breakdown is the computed fee and its settlement choice.
type Breakdown struct {
	// TotalFee is in the settlement token's smallest unit.
	TotalFee     *big.Int
	FeeToken     types.FeeToken
	FeeMint      string
	Components   Components
	SolPriceUsdc float64
}

// TotalCostLamports is the sponsor's out-of-pocket cost: everything except
// the markup.
func (b *Breakdown) TotalCostLamports() *big.Int {
	total := new(big.Int).Add(b.Components.SolanaGas, b.Components.SolanaRent)
	total.Add(total, b.Components.ProviderFee)
	total.Add(total, b.Components.FixedBuffer)
	return total
}

// Calculator derives fee breakdowns from quotes and the sponsor cost model.
type Calculator struct {
	chain       chain.Reader
	price       PriceSource
	sponsor     solana.PublicKey
	usdcMint    solana.PublicKey
	feeBps      uint64
	fixedBuffer uint64
}

// NewCalculator wires the calculator's external reads.
func NewCalculator(rd chain.Reader, price PriceSource, sponsor solana.PublicKey, usdcMint string, feeBps, fixedBufferLamports uint64) (*Calculator, error) {
	mint, err := solana.PublicKeyFromBase58(usdcMint)
	if err != nil {
		return nil, fmt.Errorf("invalid usdc mint: %w", err)
	}
	return &Calculator{
		chain:       rd,
		price:       price,
		sponsor:     sponsor,
		usdcMint:    mint,
		feeBps:      feeBps,
		fixedBuffer: fixedBufferLamports,
	}, nil
}

// LamportsToUsdc converts lamports to USDC smallest units at the given
// SOL/USDC price, rounding up. SOL has 9 decimals and USDC 6, so the
// conversion is ceil(lamports * price / 1000).
func LamportsToUsdc(lamports *big.Int, solPriceUsdc float64) *big.Int {
	price := new(big.Rat).SetFloat64(solPriceUsdc)
	v := new(big.Rat).Mul(new(big.Rat).SetInt(lamports), price)
	v.Quo(v, big.NewRat(1000, 1))
	return ceilRat(v)
}

func ceilRat(r *big.Rat) *big.Int {
	q, rem := new(big.Int).QuoRem(r.Num(), r.Denom(), new(big.Int))
	if rem.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}

// Calculate computes the fee for one quote. The settlement token is chosen
// by the user's current USDC balance, not preference, and callers must
// recompute at execution time. Any failed external read is fatal; there is
// no default fee.
func (c *Calculator) Calculate(ctx context.Context, quote *types.Quote, userWallet string, inputAmount *big.Int) (*Breakdown, error) {
	user, err := solana.PublicKeyFromBase58(userWallet)
	if err != nil {
		return nil, fmt.Errorf("invalid user wallet: %w", err)
	}

	// Two on-chain transactions are always required: the fee-payment leg
	// and the bridge leg.
	gas := new(big.Int).Mul(big.NewInt(2), big.NewInt(types.SolanaBaseTxFee+types.SolanaPriorityFeeEstimate))

	rent := big.NewInt(0)
	sponsorATA, err := token.EnsureATA(ctx, c.chain, c.sponsor, c.sponsor, c.usdcMint)
	if err != nil {
		return nil, fmt.Errorf("check sponsor usdc account: %w", err)
	}
	if sponsorATA.Instruction != nil {
		rent = big.NewInt(types.SolanaATARent)
	}

	providerFee := new(big.Int).Set(quote.ProviderFeeNative)

	markup := new(big.Int).Mul(inputAmount, new(big.Int).SetUint64(c.feeBps))
	markup.Div(markup, big.NewInt(10000))

	buffer := new(big.Int).SetUint64(c.fixedBuffer)

	totalCost := new(big.Int).Add(gas, rent)
	totalCost.Add(totalCost, providerFee)
	totalCost.Add(totalCost, buffer)

	// Markup is charged on top of exact cost recovery so the sponsor never
	// merely breaks even.
	totalFeeLamports := new(big.Int).Add(totalCost, markup)

	solPrice, err := c.price.SolPriceUsdc(ctx)
	if err != nil {
		return nil, err
	}

	userUsdcBalance, err := token.Balance(ctx, c.chain, user, c.usdcMint)
	if err != nil {
		return nil, fmt.Errorf("read user usdc balance: %w", err)
	}

	totalFeeUsdc := LamportsToUsdc(totalFeeLamports, solPrice)

	breakdown := &Breakdown{
		Components: Components{
			SolanaGas:   gas,
			SolanaRent:  rent,
			ProviderFee: providerFee,
			Markup:      markup,
			FixedBuffer: buffer,
		},
		SolPriceUsdc: solPrice,
	}

	if new(big.Int).SetUint64(userUsdcBalance).Cmp(totalFeeUsdc) >= 0 {
		breakdown.TotalFee = totalFeeUsdc
		breakdown.FeeToken = types.FeeTokenUSDC
		breakdown.FeeMint = c.usdcMint.String()
	} else {
		breakdown.TotalFee = totalFeeLamports
		breakdown.FeeToken = types.FeeTokenSOL
		breakdown.FeeMint = types.SOLNativeMint
	}

	return breakdown, nil
}
