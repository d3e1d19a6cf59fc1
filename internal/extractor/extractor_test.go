package extractor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/funkysandman/geowise/internal/llm"
)

// scriptedCompleter returns canned responses in order, then repeats the last.
type scriptedCompleter struct {
	responses []string
	err       error
	calls     int
}

func (s *scriptedCompleter) Complete(_ context.Context, _ []llm.Message) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	i := s.calls - 1
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	return s.responses[i], nil
}

const wellFormed = "location_name,event_category_at_location,event_description\n" +
	`"East London, South Africa",NATURAL_DISASTER,"A wildfire struck East London"`

func TestExtract_SucceedsOnLastAttempt(t *testing.T) {
	c := &scriptedCompleter{responses: []string{
		"garbage, with, too, many, columns",
		"garbage, with, too, many, columns",
		"garbage, with, too, many, columns",
		"garbage, with, too, many, columns",
		wellFormed,
	}}

	rows, err := New(c).Extract(context.Background(), "A wildfire struck East London yesterday.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.calls != 5 {
		t.Errorf("expected 5 attempts, got %d", c.calls)
	}
	if len(rows) != 1 || rows[0].LocationName != "East London, South Africa" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestExtract_FailsAfterFiveMalformedAttempts(t *testing.T) {
	c := &scriptedCompleter{responses: []string{"garbage, with, too, many, columns"}}

	rows, err := New(c).Extract(context.Background(), "Some article text here.")
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if c.calls != 5 {
		t.Errorf("expected 5 attempts, got %d", c.calls)
	}
	if !errors.Is(err, ErrMalformedTable) {
		t.Errorf("expected ErrMalformedTable in chain, got %v", err)
	}
	if rows != nil {
		t.Errorf("expected no rows, got %+v", rows)
	}
}

func TestExtract_CompletionFailureIsTerminal(t *testing.T) {
	c := &scriptedCompleter{err: errors.New("provider rejected the request")}

	_, err := New(c).Extract(context.Background(), "Some article text here.")
	if err == nil {
		t.Fatal("expected error")
	}
	if c.calls != 1 {
		t.Errorf("expected 1 attempt for completion failure, got %d", c.calls)
	}
}

func TestExtract_StripsCommasFromInput(t *testing.T) {
	var gotPrompt string
	c := &captureCompleter{response: wellFormed, capture: &gotPrompt}

	if _, err := New(c).Extract(context.Background(), "Fires in East London, South Africa, spread."); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Contains(gotPrompt[strings.Index(gotPrompt, "Article:"):], ",") {
		t.Error("input commas should be stripped before embedding in the prompt")
	}
}

type captureCompleter struct {
	response string
	capture  *string
}

func (c *captureCompleter) Complete(_ context.Context, msgs []llm.Message) (string, error) {
	*c.capture = msgs[0].Content
	return c.response, nil
}
