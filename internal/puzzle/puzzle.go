// Package puzzle defines the read-only puzzle record the interrogation
// engine plays against, plus a loader for the JSON deck format the app
// ships its puzzles in.
package puzzle

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Puzzle is one lateral-thinking puzzle. The engine never mutates it: the
// Prompt is shown to the player, the Solution is handed only to the judge.
type Puzzle struct {
	ID       int
	Title    string
	Prompt   string // the public statement (汤面)
	Solution string // the hidden truth (汤底)
	Labels   []string
	Author   string
}

// Valid reports whether p carries both a prompt and a solution. A puzzle
// failing this check must not be handed to the engine.
func (p Puzzle) Valid() bool {
	return strings.TrimSpace(p.Prompt) != "" && strings.TrimSpace(p.Solution) != ""
}

// Deck file schema. Matches the original cards.json layout: each card has
// a front (public side) and a back (solution side).
type deckFile struct {
	Cards []cardRecord `json:"cards"`
}

type cardRecord struct {
	ID     int      `json:"id"`
	Front  cardSide `json:"front"`
	Back   cardSide `json:"back"`
	Labels []string `json:"labels"`
	Author string   `json:"author"`
}

type cardSide struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Load reads the JSON deck at path.
func Load(path string) ([]Puzzle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("puzzle: open %q: %w", path, err)
	}
	defer f.Close()

	deck, err := FromReader(f)
	if err != nil {
		return nil, fmt.Errorf("puzzle: parse %q: %w", path, err)
	}
	return deck, nil
}

// FromReader decodes a JSON deck from r. Cards missing either side are
// rejected rather than silently skipped: a prompt without a solution can
// never be judged.
func FromReader(r io.Reader) ([]Puzzle, error) {
	var file deckFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode deck: %w", err)
	}
	if len(file.Cards) == 0 {
		return nil, fmt.Errorf("deck contains no cards")
	}

	puzzles := make([]Puzzle, 0, len(file.Cards))
	for _, c := range file.Cards {
		p := Puzzle{
			ID:       c.ID,
			Title:    c.Front.Title,
			Prompt:   c.Front.Description,
			Solution: c.Back.Description,
			Labels:   c.Labels,
			Author:   c.Author,
		}
		if !p.Valid() {
			return nil, fmt.Errorf("card %d: missing prompt or solution", c.ID)
		}
		puzzles = append(puzzles, p)
	}
	return puzzles, nil
}
