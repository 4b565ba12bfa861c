package ingest

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/architadhande/queryverse-data-platform/pkg/core"
)

// sniffSampleLines bounds how much of the file the sniffer reads.
const sniffSampleLines = 50

// candidateDelimiters in preference order for ties.
var candidateDelimiters = []rune{',', '\t', ';', '|'}

// sniffStrategy samples a prefix of the content, scores candidate
// delimiters by how consistent the per-line field count is, and retries
// the strict parse with the winner.
type sniffStrategy struct{}

func (s *sniffStrategy) Name() string { return "sniff" }

func (s *sniffStrategy) Attempt(ctx context.Context, src *Source) (*core.Grid, *core.ParseMeta, error) {
	delim, err := sniffDelimiter(src.Data)
	if err != nil {
		return nil, nil, err
	}
	if src.Delimiter != 0 && delim == src.Delimiter {
		return nil, nil, fmt.Errorf("sniffed delimiter %q matches the declared one already tried", delim)
	}
	return parseStrict(ctx, src.Data, delim)
}

// sniffDelimiter picks the candidate whose field count is most
// consistent across the sampled lines. A delimiter that never appears
// scores zero.
func sniffDelimiter(data []byte) (rune, error) {
	lines := sampleLines(data, sniffSampleLines)
	if len(lines) == 0 {
		return 0, fmt.Errorf("no content to sniff")
	}

	bestScore := 0.0
	var best rune
	for _, delim := range candidateDelimiters {
		score := scoreDelimiter(lines, delim)
		if score > bestScore {
			bestScore = score
			best = delim
		}
	}
	if best == 0 {
		return 0, fmt.Errorf("no candidate delimiter found in sample")
	}
	return best, nil
}

// scoreDelimiter rewards delimiters that split every sampled line into
// the same field count greater than one. The score is the fraction of
// lines matching the modal count, weighted by that count appearing at all.
func scoreDelimiter(lines []string, delim rune) float64 {
	counts := make(map[int]int)
	for _, line := range lines {
		n := strings.Count(line, string(delim)) + 1
		counts[n]++
	}

	modal, modalLines := 0, 0
	for fieldCount, lineCount := range counts {
		if lineCount > modalLines || (lineCount == modalLines && fieldCount > modal) {
			modal, modalLines = fieldCount, lineCount
		}
	}
	if modal < 2 {
		return 0
	}
	return float64(modalLines) / float64(len(lines))
}

// sampleLines returns up to max non-empty lines from the prefix of data.
func sampleLines(data []byte, max int) []string {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() && len(lines) < max {
		line := scanner.Text()
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
