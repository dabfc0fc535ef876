package domain

// MatchView - матч для JSON вместе с составом
type MatchView struct {
	*Match
	Players []*MatchPlayer `json:"players"`
}

func (m *Match) View() MatchView {
	return MatchView{Match: m, Players: m.Roster.Players()}
}
