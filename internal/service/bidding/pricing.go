package bidding

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/marketbay/auction-exchange-backend/internal/domain/bid"
	"github.com/marketbay/auction-exchange-backend/internal/domain/values"
)

// Resolution is the outcome of proxy-bid resolution: who leads the auction
// after a manual bid, and the price the ledger records for them.
type Resolution struct {
	Leader    uuid.UUID
	Price     values.Money
	LeaderMax values.Money
}

type candidate struct {
	userID uuid.UUID
	max    values.Money
}

// Resolve computes the new leader and current price for a manual bid under
// second-price proxy semantics. It is a pure function: same inputs, same
// outcome, no I/O.
//
// The manual bid provisionally raises the bidder's own ceiling to
// max(stored proxy, amount). All ceilings compete; the highest wins and
// pays the lowest price that still beats the runner-up by one increment,
// capped by the winner's own ceiling and floored by the manual amount.
// Equal ceilings resolve by lexicographic user-ID order so replays always
// pick the same winner.
//
// Callers must reject amount <= current before invoking. The manual
// amount floors the result, so the returned price always exceeds the
// current price, even when the runner-up ceiling sits below it.
func Resolve(current, increment values.Money, proxies []*bid.MaxBid, bidder uuid.UUID, amount values.Money) Resolution {
	myMax := amount
	candidates := make([]candidate, 0, len(proxies)+1)
	for _, p := range proxies {
		if p.UserID == bidder {
			if p.MaxAmount.GreaterThan(myMax) {
				myMax = p.MaxAmount
			}
			continue
		}
		candidates = append(candidates, candidate{userID: p.UserID, max: p.MaxAmount})
	}
	candidates = append(candidates, candidate{userID: bidder, max: myMax})

	sort.Slice(candidates, func(i, j int) bool {
		cmp := candidates[i].max.Compare(candidates[j].max)
		if cmp != 0 {
			return cmp > 0
		}
		return strings.Compare(candidates[i].userID.String(), candidates[j].userID.String()) < 0
	})

	top := candidates[0]

	price := amount
	if len(candidates) > 1 {
		second := candidates[1]
		beatSecond := second.max.MustAdd(increment)
		if beatSecond.GreaterThan(top.max) {
			beatSecond = top.max
		}
		if beatSecond.GreaterThan(price) {
			price = beatSecond
		}
	}

	return Resolution{
		Leader:    top.userID,
		Price:     price,
		LeaderMax: top.max,
	}
}
