package records

import (
	"fmt"
	"strings"
	"time"
)

// timeLayout formats the transcript's time-range header.
const timeLayout = "2006-01-02 15:04"

// Transcript is the annotated text blob the condenser consumes: a time-range
// header, a letter-to-identity legend, and one "letter: content" line per
// record, in chronological order.
type Transcript struct {
	Lines  []string          // Header, legend, then one line per record
	Legend map[string]string // letter -> sender identity
	From   time.Time
	To     time.Time
}

// BuildTranscript formats ordered records into a Transcript. Letters are
// assigned in order of first appearance: A, B, ... Z, AA, AB, ...
func BuildTranscript(recs []Record) Transcript {
	tr := Transcript{Legend: make(map[string]string)}
	if len(recs) == 0 {
		return tr
	}

	tr.From = recs[0].Timestamp
	tr.To = recs[len(recs)-1].Timestamp

	letterBySender := make(map[string]string)
	var order []string
	for _, rec := range recs {
		if _, ok := letterBySender[rec.Sender]; !ok {
			letter := letterFor(len(order))
			letterBySender[rec.Sender] = letter
			tr.Legend[letter] = rec.Sender
			order = append(order, letter)
		}
	}

	legendParts := make([]string, 0, len(order))
	for _, letter := range order {
		legendParts = append(legendParts, letter+"="+tr.Legend[letter])
	}

	tr.Lines = append(tr.Lines,
		fmt.Sprintf("Conversation from %s to %s",
			tr.From.UTC().Format(timeLayout), tr.To.UTC().Format(timeLayout)),
		"Participants: "+strings.Join(legendParts, ", "),
	)
	for _, rec := range recs {
		content := strings.ReplaceAll(rec.Content, "\n", " ")
		tr.Lines = append(tr.Lines, letterBySender[rec.Sender]+": "+content)
	}
	return tr
}

// letterFor converts a zero-based index to a spreadsheet-style letter label.
func letterFor(i int) string {
	label := ""
	for {
		label = string(rune('A'+i%26)) + label
		i = i/26 - 1
		if i < 0 {
			return label
		}
	}
}
