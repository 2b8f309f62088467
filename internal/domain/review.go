package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Score is a review rating: "DNF" or a half-step value from 1 to 5.
type Score string

// ScoreDNF marks a book the reviewer did not finish.
const ScoreDNF Score = "DNF"

// MaxStars is the number of stars a rating is drawn out of.
const MaxStars = 5

// Scores lists every accepted score in display order.
var Scores = []Score{ScoreDNF, "1", "1.5", "2", "2.5", "3", "3.5", "4", "4.5", "5"}

// ParseScore normalizes user input into a Score.
// Numeric input is accepted in any float form ("4.0", "4", " 3.5 ").
func ParseScore(s string) (Score, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, string(ScoreDNF)) {
		return ScoreDNF, nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return "", fmt.Errorf("invalid score %q", s)
	}
	score := Score(strconv.FormatFloat(v, 'f', -1, 64))
	if !score.Valid() {
		return "", fmt.Errorf("invalid score %q: must be DNF or 1 to 5 in steps of 0.5", s)
	}
	return score, nil
}

// Valid reports whether s is one of Scores.
func (s Score) Valid() bool {
	for _, v := range Scores {
		if s == v {
			return true
		}
	}
	return false
}

// StarRating is the visual breakdown of a score.
type StarRating struct {
	DNF   bool   `json:"dnf"`
	Full  int    `json:"full"`
	Half  int    `json:"half"`
	Empty int    `json:"empty"`
	Text  string `json:"text"`
}

// Stars renders the score as full, half and empty stars out of MaxStars.
// A DNF score renders as the text "DNF" with no stars.
func (s Score) Stars() StarRating {
	if s == ScoreDNF {
		return StarRating{DNF: true, Text: string(ScoreDNF)}
	}

	v, err := strconv.ParseFloat(string(s), 64)
	if err != nil {
		return StarRating{}
	}

	full := int(v)
	half := 0
	if v-float64(full) >= 0.5 {
		half = 1
	}
	empty := max(MaxStars-full-half, 0)

	var b strings.Builder
	b.WriteString(strings.Repeat("★", full))
	if half == 1 {
		b.WriteString("⯪")
	}
	b.WriteString(strings.Repeat("☆", empty))

	return StarRating{Full: full, Half: half, Empty: empty, Text: b.String()}
}

// Review is a user's rating of a book. There is at most one per (user, book).
type Review struct {
	Timestamps
	ID      int64  `json:"id"`
	UserID  int64  `json:"user_id"`
	BookID  int64  `json:"book_id"`
	Score   Score  `json:"score"`
	Comment string `json:"comment"`
}

// ReviewDetail is a review with the reviewer's username and rendered stars.
type ReviewDetail struct {
	Review
	Username string     `json:"username"`
	Stars    StarRating `json:"stars"`
}
