package stats

// impliedProbability converts an American moneyline into the win probability
// the price implies. A -150 favorite is priced at 60%, a +150 underdog at
// 40%. Zero is not a real price and maps to 0.
func impliedProbability(ml int) float64 {
	if ml == 0 {
		return 0
	}
	if ml > 0 {
		return 100 / (float64(ml) + 100)
	}
	m := float64(-ml)
	return m / (m + 100)
}

// fairProbability strips the book's margin from a two-way market. The two
// sides' implied probabilities overshoot 1 in total by the vig; normalizing
// them proportionally yields the team's fair share. Returns 0 when either
// quote is missing.
func fairProbability(teamML, oppML int) float64 {
	team := impliedProbability(teamML)
	opp := impliedProbability(oppML)
	if team <= 0 || opp <= 0 {
		return 0
	}
	return team / (team + opp)
}
