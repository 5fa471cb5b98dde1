package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/radieske/wager-admin-console/internal/authority"
)

func bet(id, userID string, stake, win float64, createdAt time.Time) authority.Bet {
	return authority.Bet{ID: id, UserID: userID, Stake: stake, Win: win, CreatedAt: createdAt}
}

func ts(day, hour int) time.Time {
	return time.Date(2026, 5, day, hour, 0, 0, 0, time.UTC)
}

func TestApply_DateRangeInclusive(t *testing.T) {
	bets := []authority.Bet{
		bet("b1", "U1", 10, 0, ts(1, 10)),
		bet("b2", "U1", 20, 40, ts(2, 10)),
		bet("b3", "U2", 30, 0, ts(3, 10)),
	}

	from := ts(2, 10)
	to := ts(3, 10)

	rows := Apply(bets, Filter{From: &from, To: &to})
	var ids []string
	for _, b := range rows {
		ids = append(ids, b.ID)
	}
	// limites inclusivos dos dois lados
	assert.Equal(t, []string{"b2", "b3"}, ids)
}

func TestApply_AbsentBoundsDoNotConstrain(t *testing.T) {
	bets := []authority.Bet{
		bet("b1", "U1", 10, 0, ts(1, 10)),
		bet("b2", "U1", 20, 40, ts(20, 10)),
	}

	assert.Len(t, Apply(bets, Filter{}), 2)

	from := ts(5, 0)
	assert.Len(t, Apply(bets, Filter{From: &from}), 1)

	to := ts(5, 0)
	assert.Len(t, Apply(bets, Filter{To: &to}), 1)
}

func TestApply_UserTermCaseInsensitiveSubstring(t *testing.T) {
	bets := []authority.Bet{
		bet("b1", "U1001", 10, 0, ts(1, 10)),
		bet("b2", "U2002", 20, 0, ts(1, 11)),
	}

	rows := Apply(bets, Filter{UserID: "u10"})
	assert.Len(t, rows, 1)
	assert.Equal(t, "b1", rows[0].ID)
}

func TestSum_TotalsAndNegativeNet(t *testing.T) {
	bets := []authority.Bet{
		bet("b1", "U1", 100, 0, ts(1, 10)),
		bet("b2", "U1", 50, 95, ts(1, 11)),
		bet("b3", "U2", 25, 0, ts(1, 12)),
	}

	totals := Sum(bets)
	assert.Equal(t, 175.0, totals.Stake)
	assert.Equal(t, 95.0, totals.Win)
	assert.Equal(t, -80.0, totals.Net, "net pode ser negativo")
}

func TestSum_Empty(t *testing.T) {
	assert.Equal(t, Totals{}, Sum(nil))
}
