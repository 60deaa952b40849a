package quiz

import "strings"

// minBlockLines is a question line plus the four option lines.
const minBlockLines = 1 + 4

// answerLabels are tried in order on lines after the options.
var answerLabels = []string{answerLabel, "Answer:"}

// ParseStats counts what Parse saw.
type ParseStats struct {
	Blocks    int
	Malformed int
	Parsed    int
}

// Parse splits a raw reply into question blocks and extracts each one.
// It never fails: blocks too short to hold a question and four options
// are dropped and counted as malformed. Option and answer content is not
// checked here; Validate does that.
func Parse(raw string) ([]ParsedMCQ, ParseStats) {
	var (
		out   []ParsedMCQ
		stats ParseStats
	)

	for _, block := range splitBlocks(stripCodeFences(raw)) {
		stats.Blocks++
		if len(block) < minBlockLines {
			stats.Malformed++
			continue
		}
		out = append(out, parseBlock(block))
	}

	stats.Parsed = len(out)
	return out, stats
}

// stripCodeFences blanks out markdown fence lines such as ``` or ```text.
// A blanked line still separates blocks.
func stripCodeFences(raw string) string {
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			lines[i] = ""
		}
	}
	return strings.Join(lines, "\n")
}

// splitBlocks groups trimmed non-blank lines separated by blank lines.
func splitBlocks(raw string) [][]string {
	var (
		blocks  [][]string
		current []string
	)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

func parseBlock(lines []string) ParsedMCQ {
	mcq := ParsedMCQ{
		Question: lines[0],
		Options:  make(map[Letter]string, len(Letters)),
	}

	for i, l := range Letters {
		mcq.Options[l] = optionText(lines[1+i], l)
	}

	for _, line := range lines[1+len(Letters):] {
		if rest, ok := cutLabel(line); ok {
			mcq.CorrectAnswer = normalizeLetter(rest)
			break
		}
	}

	return mcq
}

// optionPrefixes returns the accepted forms of the prefix for l.
func optionPrefixes(l Letter) []string {
	s := string(l)
	return []string{"(" + s + ")", s + ")", s + ".", s + ":"}
}

// optionText strips the prefix for l from line. A line that does not
// carry l's prefix yields "".
func optionText(line string, l Letter) string {
	for _, p := range optionPrefixes(l) {
		if hasPrefixFold(line, p) {
			return strings.TrimSpace(line[len(p):])
		}
	}
	return ""
}

// cutLabel reports whether line starts with a correct-answer label and
// returns the text after it.
func cutLabel(line string) (string, bool) {
	for _, label := range answerLabels {
		if hasPrefixFold(line, label) {
			return line[len(label):], true
		}
	}
	return "", false
}

// normalizeLetter reduces "(B).", "b)" or "b) Paris" to "b". Anything that
// is not a bare letter after trimming is kept lower-cased so the
// validator can reject it.
func normalizeLetter(s string) Letter {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return Letter(strings.ToLower(strings.Trim(fields[0], "().:")))
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
