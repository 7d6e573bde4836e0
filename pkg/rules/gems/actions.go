package gems

import (
	"encoding/json"
	"fmt"
)

// Action types understood by the engine.
const (
	ActionTakeTokens  = "take_tokens"
	ActionBuyCard     = "buy_card"
	ActionReserveCard = "reserve_card"
	ActionEndTurn     = "end_turn"
)

type takeTokensAction struct {
	Colors []string `json:"colors"`
}

type buyCardAction struct {
	CardID int `json:"cardId"`
}

type reserveCardAction struct {
	CardID int `json:"cardId"`
}

func parseTakeTokens(raw json.RawMessage) (*takeTokensAction, error) {
	a := &takeTokensAction{}
	if err := json.Unmarshal(raw, a); err != nil {
		return nil, fmt.Errorf("malformed take_tokens action: %v", err)
	}
	return a, nil
}

func parseBuyCard(raw json.RawMessage) (*buyCardAction, error) {
	a := &buyCardAction{}
	if err := json.Unmarshal(raw, a); err != nil {
		return nil, fmt.Errorf("malformed buy_card action: %v", err)
	}
	return a, nil
}

func parseReserveCard(raw json.RawMessage) (*reserveCardAction, error) {
	a := &reserveCardAction{}
	if err := json.Unmarshal(raw, a); err != nil {
		return nil, fmt.Errorf("malformed reserve_card action: %v", err)
	}
	return a, nil
}

// validateTakeTokens checks a token draw: three distinct basic colors,
// or two of one color when the bank holds at least four of it.
func validateTakeTokens(s *State, a *takeTokensAction) error {
	if s.active().Acted {
		return fmt.Errorf("already acted this turn")
	}
	switch len(a.Colors) {
	case 3:
		seen := make(map[string]bool, 3)
		for _, color := range a.Colors {
			if !isBasicColor(color) {
				return fmt.Errorf("cannot take %s tokens", color)
			}
			if seen[color] {
				return fmt.Errorf("colors must be distinct when taking three")
			}
			seen[color] = true
			if s.Bank[color] < 1 {
				return fmt.Errorf("no %s tokens left in the bank", color)
			}
		}
	case 2:
		if a.Colors[0] != a.Colors[1] {
			return fmt.Errorf("taking two tokens requires a single color")
		}
		color := a.Colors[0]
		if !isBasicColor(color) {
			return fmt.Errorf("cannot take %s tokens", color)
		}
		if s.Bank[color] < 4 {
			return fmt.Errorf("taking two %s requires at least four in the bank", color)
		}
	default:
		return fmt.Errorf("must take three distinct colors or two of one color")
	}
	return nil
}

func applyTakeTokens(s *State, a *takeTokensAction) {
	player := s.active()
	for _, color := range a.Colors {
		s.Bank[color]--
		player.Tokens[color]++
	}
	player.Acted = true
}

func validateBuyCard(s *State, a *buyCardAction) error {
	player := s.active()
	if player.Acted {
		return fmt.Errorf("already acted this turn")
	}
	card, ok := findPurchasable(s, player, a.CardID)
	if !ok {
		return fmt.Errorf("card %d is not available to buy", a.CardID)
	}
	if !canAfford(player, card) {
		return fmt.Errorf("cannot afford card %d", a.CardID)
	}
	return nil
}

func applyBuyCard(s *State, a *buyCardAction) {
	player := s.active()
	card, _ := findPurchasable(s, player, a.CardID)
	payFor(player, card, s.Bank)

	if !removeReserved(player, card.ID) {
		removeFromMarket(s, card.ID)
	}
	player.Bonuses[card.Bonus]++
	player.Points += card.Points
	player.Acted = true
}

func validateReserveCard(s *State, a *reserveCardAction) error {
	player := s.active()
	if player.Acted {
		return fmt.Errorf("already acted this turn")
	}
	if len(player.Reserved) >= ReserveLimit {
		return fmt.Errorf("reserve limit of %d reached", ReserveLimit)
	}
	if _, ok := findInMarket(s, a.CardID); !ok {
		return fmt.Errorf("card %d is not in the market", a.CardID)
	}
	return nil
}

func applyReserveCard(s *State, a *reserveCardAction) {
	player := s.active()
	card, _ := findInMarket(s, a.CardID)
	removeFromMarket(s, card.ID)
	player.Reserved = append(player.Reserved, card)
	if s.Bank[Gold] > 0 {
		s.Bank[Gold]--
		player.Tokens[Gold]++
	}
	player.Acted = true
}

func applyEndTurn(s *State) {
	s.active().Acted = false
	s.ActivePlayerIndex = (s.ActivePlayerIndex + 1) % len(s.Players)
}

func isBasicColor(color string) bool {
	for _, c := range BasicColors {
		if c == color {
			return true
		}
	}
	return false
}

// canAfford reports whether the player covers the card cost with
// bonuses, tokens, and gold for any remaining shortage.
func canAfford(p *Player, card Card) bool {
	goldNeeded := 0
	for color, n := range card.Cost {
		short := n - p.Bonuses[color] - p.Tokens[color]
		if short > 0 {
			goldNeeded += short
		}
	}
	return goldNeeded <= p.Tokens[Gold]
}

// payFor moves the card's cost from the player back to the bank,
// spending gold for whatever the colored tokens do not cover.
func payFor(p *Player, card Card, bank map[string]int) {
	for color, n := range card.Cost {
		owe := n - p.Bonuses[color]
		if owe <= 0 {
			continue
		}
		fromTokens := owe
		if p.Tokens[color] < fromTokens {
			fromTokens = p.Tokens[color]
		}
		p.Tokens[color] -= fromTokens
		bank[color] += fromTokens
		if short := owe - fromTokens; short > 0 {
			p.Tokens[Gold] -= short
			bank[Gold] += short
		}
	}
}

// findPurchasable locates a card in the market or the player's own reserve.
func findPurchasable(s *State, p *Player, cardID int) (Card, bool) {
	if card, ok := findInMarket(s, cardID); ok {
		return card, true
	}
	for _, card := range p.Reserved {
		if card.ID == cardID {
			return card, true
		}
	}
	return Card{}, false
}

func findInMarket(s *State, cardID int) (Card, bool) {
	for tier := 0; tier < NumTiers; tier++ {
		for _, card := range s.Market[tier] {
			if card.ID == cardID {
				return card, true
			}
		}
	}
	return Card{}, false
}

// removeFromMarket takes a card out of its market row and refills the
// slot from that tier's deck when one remains.
func removeFromMarket(s *State, cardID int) {
	for tier := 0; tier < NumTiers; tier++ {
		for i, card := range s.Market[tier] {
			if card.ID != cardID {
				continue
			}
			if len(s.Decks[tier]) > 0 {
				s.Market[tier][i] = s.Decks[tier][0]
				s.Decks[tier] = s.Decks[tier][1:]
			} else {
				s.Market[tier] = append(s.Market[tier][:i], s.Market[tier][i+1:]...)
			}
			return
		}
	}
}

func removeReserved(p *Player, cardID int) bool {
	for i, card := range p.Reserved {
		if card.ID == cardID {
			p.Reserved = append(p.Reserved[:i], p.Reserved[i+1:]...)
			return true
		}
	}
	return false
}
