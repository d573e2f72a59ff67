package messages

func NewPosition(line, character int) Position {
	return Position{
		Line:      line,
		Character: character,
	}
}

// Position is 0-based. Character counts UTF-16 code units.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

func NewRange(start, end Position) Range {
	return Range{
		Start: start,
		End:   end,
	}
}

type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

type Location struct {
	URI   string `json:"uri"`
	Range Range  `json:"range"`
}
