package skirmish

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Transcript is the text record of a match. Most data is stored in the meta
// field.
type Transcript struct {
	Meta  []*Tag  `json:"tags"`
	Turns []*Turn `json:"turns"`
}

var (
	// Example: [Tag_Name "Tag Data"]
	tagRegex     = regexp.MustCompile(`\[([0-9A-Za-z_]+) "(.*)"\]`)
	commentRegex = regexp.MustCompile("{.+}")
)

// GetMeta does a linear search for the key specified and returns the value. It
// returns an error if the key does not exist.
func (t *Transcript) GetMeta(key string) (string, error) {
	for _, tag := range t.Meta {
		if tag != nil && tag.Key == key {
			return tag.Value, nil
		}
	}

	return "", fmt.Errorf("no such meta key %q", key)
}

// UpdateMeta sets key to value, adding the tag if it is missing.
func (t *Transcript) UpdateMeta(key, value string) {
	for _, tag := range t.Meta {
		if tag != nil && tag.Key == key {
			tag.Value = value
			return
		}
	}
	t.Meta = append(t.Meta, &Tag{Key: key, Value: value})
}

// GetTurn returns the turn with the given number.
func (t *Transcript) GetTurn(number int64) (*Turn, error) {
	for _, turn := range t.Turns {
		if turn.Number == number {
			return turn, nil
		}
	}
	return nil, fmt.Errorf("no turn %d", number)
}

// Config rebuilds the game configuration from the Size and HomeRow tags.
// Missing tags fall back to the defaults.
func (t *Transcript) Config() (Config, error) {
	cfg := DefaultConfig()

	if size, err := t.GetMeta(TagSize); err == nil {
		n, err := strconv.Atoi(size)
		if err != nil {
			return cfg, fmt.Errorf("%w: size %q: %v", ErrInvalidConfig, size, err)
		}
		cfg.Size = n
	}

	if row, err := t.GetMeta(TagHomeRow); err == nil {
		kinds, err := ParseHomeRow(row)
		if err != nil {
			return cfg, err
		}
		cfg.HomeRow = kinds
	}

	return cfg, cfg.Validate()
}

// Replay builds a game from the transcript's configuration and applies every
// turn in order. Any rejected turn aborts the replay.
func (t *Transcript) Replay() (*Game, error) {
	cfg, err := t.Config()
	if err != nil {
		return nil, err
	}

	g, err := NewGame(cfg)
	if err != nil {
		return nil, err
	}

	for _, turn := range t.Turns {
		if _, err := g.ApplyMove(turn.Player, turn.From, turn.Command.Text); err != nil {
			return g, fmt.Errorf("turn %d: %w", turn.Number, err)
		}
	}

	return g, nil
}

// Text renders the transcript in the format ParseTranscript reads.
func (t *Transcript) Text() string {
	var sb strings.Builder
	for _, tag := range t.Meta {
		sb.WriteString(tag.String())
		sb.WriteString("\n")
	}
	if len(t.Meta) > 0 {
		sb.WriteString("\n")
	}
	for _, turn := range t.Turns {
		sb.WriteString(turn.Text())
		sb.WriteString("\n")
	}
	return sb.String()
}

// ParseTranscript parses a transcript file.
func ParseTranscript(data []byte) (*Transcript, error) {
	ret := &Transcript{}

	s := bufio.NewScanner(bytes.NewReader(data))
	for s.Scan() {
		l := s.Text()
		if ta := parseTag(l); ta != nil {
			ret.Meta = append(ret.Meta, ta)
			continue
		}

		tu, err := parseTurn(l)
		if err != nil {
			return nil, err
		}
		if tu != nil && tu.Number > 0 {
			ret.Turns = append(ret.Turns, tu)
		}
	}

	if err := s.Err(); err != nil {
		return ret, err
	}

	return ret, nil
}

func parseTag(line string) *Tag {
	parts := tagRegex.FindStringSubmatch(line)
	if len(parts) < 3 {
		return nil
	}

	return &Tag{
		Key:   parts[1],
		Value: parts[2],
	}
}

func parseTurn(line string) (*Turn, error) {
	turn := &Turn{}

	cmnt := strings.TrimSpace(strings.Join(commentRegex.FindAllString(line, -1), " "))
	turn.Comment = strings.TrimSpace(strings.Trim(cmnt, "{}"))

	cleanLine := strings.TrimSpace(commentRegex.ReplaceAllString(line, ""))
	if cleanLine == "" {
		return nil, nil
	}

	fields := strings.Fields(cleanLine)
	if len(fields) != 4 {
		return nil, fmt.Errorf("line doesn't have correct number of parts: %+v", fields)
	}

	num, err := strconv.ParseInt(strings.TrimRight(fields[0], "."), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad turn number %q: %w", fields[0], err)
	}
	turn.Number = num

	if turn.Player, err = ParsePlayer(fields[1]); err != nil {
		return nil, err
	}

	if turn.From, err = ParsePosition(fields[2]); err != nil {
		return nil, err
	}

	if turn.Command, err = NewCommand(fields[3]); err != nil {
		return nil, err
	}

	return turn, nil
}
