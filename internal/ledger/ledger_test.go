package ledger

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func equalEntry(payer string, amount float64, participants []string) Entry {
	shares := make(map[string]float64, len(participants))
	for _, p := range participants {
		shares[p] = amount / float64(len(participants))
	}
	return Entry{Payer: payer, ConvertedAmount: amount, Shares: shares}
}

func TestTwoPeopleOneExpense(t *testing.T) {
	participants := []string{"Alice", "Bob"}
	entries := []Entry{equalEntry("Alice", 100, participants)}

	balances := ComputeBalances(entries, participants)
	assert.Equal(t, Balances{"Alice": 50, "Bob": -50}, balances)

	transfers := ResolveTransfers(balances, participants)
	assert.Equal(t, []Transfer{{From: "Bob", To: "Alice", Amount: 50}}, transfers)
}

func TestThreePeopleOnePayer(t *testing.T) {
	participants := []string{"A", "B", "C"}
	entries := []Entry{equalEntry("A", 90, participants)}

	balances := ComputeBalances(entries, participants)
	assert.Equal(t, Balances{"A": 60, "B": -30, "C": -30}, balances)

	transfers := ResolveTransfers(balances, participants)
	assert.Equal(t, []Transfer{
		{From: "B", To: "A", Amount: 30},
		{From: "C", To: "A", Amount: 30},
	}, transfers)
}

func TestNoiseOnlyBalancesNeedNoTransfers(t *testing.T) {
	balances := Balances{"A": 0.004, "B": -0.009, "C": 0.005}

	transfers := ResolveTransfers(balances, []string{"A", "B", "C"})
	assert.Empty(t, transfers)
	assert.NotNil(t, transfers)
	assert.True(t, IsSettled(balances))
}

func TestComputeBalances_NoExpenses(t *testing.T) {
	balances := ComputeBalances(nil, []string{"A", "B"})
	assert.Equal(t, Balances{"A": 0, "B": 0}, balances)
	assert.Empty(t, ResolveTransfers(balances, []string{"A", "B"}))
}

func TestComputeBalances_MissingShareCountsAsZero(t *testing.T) {
	participants := []string{"A", "B", "C"}
	entries := []Entry{{Payer: "A", ConvertedAmount: 100, Shares: map[string]float64{"A": 40, "B": 60}}}

	balances := ComputeBalances(entries, participants)
	assert.Equal(t, Balances{"A": 60, "B": -60, "C": 0}, balances)
}

func TestResolveTransfers_LargestFirst(t *testing.T) {
	balances := Balances{"A": -10, "B": -40, "C": 30, "D": 20}

	transfers := ResolveTransfers(balances, []string{"A", "B", "C", "D"})
	assert.Equal(t, []Transfer{
		{From: "B", To: "C", Amount: 30},
		{From: "B", To: "D", Amount: 10},
		{From: "A", To: "D", Amount: 10},
	}, transfers)
}

func TestResolveTransfers_TieKeepsParticipantOrder(t *testing.T) {
	balances := Balances{"A": 20, "B": -10, "C": -10}

	transfers := ResolveTransfers(balances, []string{"A", "C", "B"})
	require.Len(t, transfers, 2)
	assert.Equal(t, "C", transfers[0].From)
	assert.Equal(t, "B", transfers[1].From)
}

func TestComputeTotals(t *testing.T) {
	participants := []string{"A", "B", "C"}
	entries := []Entry{
		equalEntry("A", 90, participants),
		{Payer: "B", ConvertedAmount: 30, Shares: map[string]float64{"C": 30}},
	}

	totals, grand := ComputeTotals(entries, participants)
	assert.Equal(t, 120.0, grand)
	assert.Equal(t, []ParticipantTotal{
		{Name: "A", Paid: 90, Owed: 30, Net: 60},
		{Name: "B", Paid: 30, Owed: 30, Net: 0},
		{Name: "C", Paid: 0, Owed: 60, Net: -60},
	}, totals)
}

func randomEntries(r *rand.Rand, participants []string, n int) []Entry {
	entries := make([]Entry, n)
	for i := range entries {
		payer := participants[r.Intn(len(participants))]
		amount := float64(r.Intn(100000)) / 100
		if r.Intn(2) == 0 {
			entries[i] = equalEntry(payer, amount, participants)
			continue
		}
		// manual split: one random participant takes a random part, the rest is split evenly
		shares := make(map[string]float64, len(participants))
		first := participants[r.Intn(len(participants))]
		part := amount * r.Float64()
		shares[first] = part
		for _, p := range participants {
			shares[p] += (amount - part) / float64(len(participants))
		}
		entries[i] = Entry{Payer: payer, ConvertedAmount: amount, Shares: shares}
	}
	return entries
}

func TestProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	participants := []string{"Ana", "Bo", "Chen", "Dara", "Eli"}

	for round := 0; round < 200; round++ {
		entries := randomEntries(r, participants, 1+r.Intn(12))
		balances := ComputeBalances(entries, participants)

		var total float64
		for _, v := range balances {
			total += v
		}
		assert.InDelta(t, 0, total, 1e-6, "balances must sum to zero")

		shuffled := append([]Entry(nil), entries...)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		again := ComputeBalances(shuffled, participants)
		for _, p := range participants {
			assert.InDelta(t, balances[p], again[p], 1e-6)
		}

		remaining := make(Balances, len(balances))
		for k, v := range balances {
			remaining[k] = v
		}
		for _, tr := range ResolveTransfers(balances, participants) {
			assert.Greater(t, tr.Amount, 0.0)
			remaining[tr.From] += tr.Amount
			remaining[tr.To] -= tr.Amount
		}
		for _, p := range participants {
			assert.InDelta(t, 0, remaining[p], 2*Epsilon*float64(len(participants)), "balance of %s after transfers", p)
		}
	}
}

func TestEqualSplitSumsBack(t *testing.T) {
	for n := 1; n <= 12; n++ {
		participants := make([]string, n)
		for i := range participants {
			participants[i] = string(rune('A' + i))
		}
		entry := equalEntry("A", 1000.01, participants)

		var total float64
		for _, v := range entry.Shares {
			total += v
		}
		assert.InDelta(t, 1000.01, total, Epsilon)
	}
}
