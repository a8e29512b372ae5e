package mockapi

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/remmiculous/transaction-insights-dashboard/internal/model"
	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
)

// seedBatchSize is the number of records written per database transaction.
const seedBatchSize = 100

var (
	firstNames = []string{"Alice", "Bruno", "Chen", "Dalia", "Emeka", "Farah", "Gustavo", "Hana", "Ivan", "Jade", "Kofi", "Lena", "Mateo", "Nadia", "Omar", "Priya"}
	lastNames  = []string{"Okafor", "Silva", "Nakamura", "Haddad", "Kowalski", "Moreau", "Reyes", "Schmidt", "Tanaka", "Valdez"}
	currencies = []string{"USD", "EUR", "GBP", "NGN"}
)

// GeneratorOptions controls synthetic transaction generation.
type GeneratorOptions struct {
	Now        time.Time
	Categories []string
	Count      int
	Seed       uint64
	// Span is how far back from Now creation times are spread.
	Span time.Duration
}

// Generate produces Count deterministic synthetic transactions. The same
// options always yield the same records.
func Generate(opts GeneratorOptions) []model.Transaction {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.Span <= 0 {
		opts.Span = 30 * 24 * time.Hour
	}
	categories := opts.Categories
	if len(categories) == 0 {
		categories = []string{"payment", "deposit", "withdraw", "invoice"}
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	txns := make([]model.Transaction, 0, opts.Count)

	for i := range opts.Count {
		id := strconv.Itoa(i + 1)
		name := firstNames[rng.IntN(len(firstNames))] + " " + lastNames[rng.IntN(len(lastNames))]
		cents := rng.Int64N(500000) + 100
		created := opts.Now.Add(-time.Duration(rng.Int64N(int64(opts.Span))))

		status := model.StatusSuccess
		switch roll := rng.IntN(10); {
		case roll >= 9:
			status = model.StatusPending
		case roll >= 7:
			status = model.StatusFailure
		}

		txns = append(txns, model.Transaction{
			ID:        id,
			Name:      name,
			Avatar:    "https://i.pravatar.cc/150?u=" + id,
			Amount:    decimal.New(cents, -2).StringFixed(2),
			Currency:  currencies[rng.IntN(len(currencies))],
			Category:  categories[rng.IntN(len(categories))],
			Status:    status,
			CreatedAt: created.UTC().Format(createdAtLayout),
		})
	}

	return txns
}

// Seed writes txns to the store in batches, rendering progress to w. A nil
// writer disables the progress bar.
func (s *Store) Seed(ctx context.Context, txns []model.Transaction, w io.Writer) error {
	var bar *progressbar.ProgressBar
	if w != nil {
		bar = progressbar.NewOptions(len(txns),
			progressbar.OptionSetWriter(w),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("[cyan][bold]Seeding transactions...[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() {
				_, _ = fmt.Fprintln(w)
			}),
		)
	}

	for start := 0; start < len(txns); start += seedBatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+seedBatchSize, len(txns))
		if err := s.Insert(ctx, txns[start:end]); err != nil {
			return err
		}
		if bar != nil {
			_ = bar.Add(end - start)
		}
	}

	if bar != nil {
		_ = bar.Finish()
	}
	return nil
}
