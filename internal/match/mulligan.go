package match

import (
	"fmt"

	"github.com/gazure/arenabuddy/internal/cards"
	"github.com/gazure/arenabuddy/internal/parser"
)

// Mulligan decision and play/draw values.
const (
	DecisionKeep       = "Keep"
	DecisionMulligan   = "Mulligan"
	DecisionMatchEnded = "Match Ended"

	OnPlay  = "Play"
	OnDraw  = "Draw"
	Unknown = "Unknown"
)

// MulliganRecord is one game's opening-hand decision as reconstructed from
// the replay.
type MulliganRecord struct {
	MatchID           string
	GameNumber        int
	HandSizeThreshold int
	Hand              []int
	PlayDraw          string
	OpponentColors    string
	Decision          string
}

type handCapture struct {
	game int
	hand []int
}

type mulliganOffer struct {
	msgID int
	count int
}

// Mulligans reconstructs every opening-hand decision of the match in a
// single walk over the ordered message log.
//
// The walk threads: the current game number (bumped on each intermission), a
// play/draw entry per game (set when a snapshot shows both seats awaiting a
// mulligan decision, read from the deciding seat), and a hand capture each
// time a snapshot shows the controller alone awaiting the decision. Offers
// and responses are collected along the way and zipped with the captured
// hands positionally. The counts must balance exactly; no partial
// reconstruction is attempted.
//
// The opponent color identity is the union over opponent-owned objects in
// the whole message log, not just objects revealed before the decision.
// That coarsening matches the source data's semantics and is deliberate.
func (r *Replay) Mulligans(lookup cards.Lookup) ([]MulliganRecord, error) {
	game := 1
	playDraw := make(map[int]string)
	var hands []handCapture
	var offers []mulliganOffer
	responses := make(map[int]string)
	instToGrp := make(map[int]int)
	opponentGrps := make(map[int]bool)

	for _, entry := range r.log {
		if entry.Client != nil {
			p := entry.Client.Payload
			if p.Type == parser.ClientTypeMulliganResp && p.MulliganResp != nil {
				responses[p.RespID] = p.MulliganResp.Decision
			}
			continue
		}
		m := entry.Engine
		if m == nil {
			continue
		}
		switch m.Type {
		case parser.EngineTypeIntermission:
			game++
		case parser.EngineTypeMulliganReq:
			if m.MulliganReq != nil {
				offers = append(offers, mulliganOffer{msgID: m.MsgID, count: m.MulliganReq.MulliganCount})
			}
		case parser.EngineTypeGameState:
			gs := m.GameState
			if gs == nil {
				continue
			}
			for _, obj := range gs.GameObjects {
				instToGrp[obj.InstanceID] = obj.GrpID
				if obj.OwnerSeatID != r.controllerSeat {
					opponentGrps[obj.GrpID] = true
				}
			}

			controllerPending, opponentPending := false, false
			for _, p := range gs.Players {
				if !p.PendingMulligan() {
					continue
				}
				if p.SystemSeatNumber == r.controllerSeat {
					controllerPending = true
				} else {
					opponentPending = true
				}
			}
			switch {
			case controllerPending && opponentPending:
				// Both seats deciding simultaneously: the deciding seat is
				// the one on the play this game.
				if _, seen := playDraw[game]; !seen && gs.TurnInfo != nil {
					if gs.TurnInfo.DecisionPlayer == r.controllerSeat {
						playDraw[game] = OnPlay
					} else {
						playDraw[game] = OnDraw
					}
				}
			case controllerPending:
				hands = append(hands, handCapture{game: game, hand: r.controllerHand(gs, instToGrp)})
			}
		}
	}

	if len(hands) != len(offers) {
		return nil, fmt.Errorf("match %s: %d hands vs %d offers: %w",
			r.matchID, len(hands), len(offers), ErrMulliganMismatch)
	}

	records := make([]MulliganRecord, 0, len(offers))
	for i, offer := range offers {
		rec := MulliganRecord{
			MatchID:           r.matchID,
			GameNumber:        hands[i].game,
			HandSizeThreshold: 7 - offer.count,
			Hand:              hands[i].hand,
			PlayDraw:          Unknown,
			Decision:          DecisionMatchEnded,
		}
		if pd, ok := playDraw[rec.GameNumber]; ok {
			rec.PlayDraw = pd
		}
		if decision, ok := responses[offer.msgID]; ok {
			rec.Decision = decisionLabel(decision)
		}
		rec.OpponentColors = opponentColors(rec.GameNumber, opponentGrps, lookup)
		records = append(records, rec)
	}
	return records, nil
}

// controllerHand reads the controller's hand zone, mapping object instance
// ids to printed card ids through the running gameObjects map. Instances the
// engine never described are dropped.
func (r *Replay) controllerHand(gs *parser.GameStateMessage, instToGrp map[int]int) []int {
	var hand []int
	for _, z := range gs.Zones {
		if z.Type != parser.ZoneTypeHand || z.OwnerSeatID != r.controllerSeat {
			continue
		}
		for _, inst := range z.ObjectInstanceIDs {
			if grp, ok := instToGrp[inst]; ok {
				hand = append(hand, grp)
			}
		}
	}
	return hand
}

func decisionLabel(decision string) string {
	switch decision {
	case parser.MulliganOptionAccept:
		return DecisionKeep
	case parser.MulliganOptionMulligan:
		return DecisionMulligan
	default:
		return decision
	}
}

// opponentColors derives the opponent's color identity at decision time.
// Game one has no information yet; later games union the color identities of
// every opponent-owned card seen in the match.
func opponentColors(game int, opponentGrps map[int]bool, lookup cards.Lookup) string {
	if game == 1 || lookup == nil {
		return Unknown
	}
	colors := make(map[string]bool)
	for grp := range opponentGrps {
		card, ok := lookup.Get(grp)
		if !ok {
			continue
		}
		for _, c := range card.ColorIdentity {
			colors[c] = true
		}
	}
	if len(colors) == 0 {
		return Unknown
	}
	return cards.ColorString(colors)
}
