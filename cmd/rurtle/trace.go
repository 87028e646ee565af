package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/thomasrohde/rurtle/pkg/evaluator"
)

// TraceSummary aggregates an NDJSON trace written with --trace.
type TraceSummary struct {
	RunID         string         `json:"runId"`
	TotalEvents   int            `json:"totalEvents"`
	Chunks        int            `json:"chunks"`
	FunctionCalls int            `json:"functionCalls"`
	CallsByName   map[string]int `json:"callsByName"`
	BuiltinCalls  int            `json:"builtinCalls"`
	Capabilities  map[string]int `json:"capabilities"`
	Learned       int            `json:"learned"`
	Recovered     int            `json:"recovered"`
	Errors        int            `json:"errors"`
	StartTime     string         `json:"startTime,omitempty"`
	EndTime       string         `json:"endTime,omitempty"`
	DurationMs    float64        `json:"durationMs"`
}

func computeTraceSummary(r io.Reader) *TraceSummary {
	summary := &TraceSummary{
		CallsByName:  make(map[string]int),
		Capabilities: make(map[string]int),
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var event evaluator.TraceEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			continue // skip invalid lines
		}

		summary.TotalEvents++
		if summary.RunID == "" {
			summary.RunID = event.RunID
		}

		switch event.Event {
		case evaluator.TraceRunStart:
			summary.Chunks++
			if summary.StartTime == "" {
				summary.StartTime = event.Timestamp
			}
		case evaluator.TraceRunEnd:
			summary.EndTime = event.Timestamp
		case evaluator.TraceFnCallStart:
			summary.FunctionCalls++
			if name := event.Data["fn"]; name != "" {
				summary.CallsByName[name]++
			}
		case evaluator.TraceBuiltinCall:
			summary.BuiltinCalls++
			if name := event.Data["fn"]; name != "" {
				summary.CallsByName[name]++
			}
			if capability := event.Data["capability"]; capability != "" {
				summary.Capabilities[capability]++
			}
		case evaluator.TraceLearn:
			summary.Learned++
		case evaluator.TraceTryRecovered:
			summary.Recovered++
		case evaluator.TraceError:
			summary.Errors++
		}
	}

	if summary.StartTime != "" && summary.EndTime != "" {
		start, err1 := parseTime(summary.StartTime)
		end, err2 := parseTime(summary.EndTime)
		if err1 == nil && err2 == nil {
			summary.DurationMs = float64(end.Sub(start).Milliseconds())
		}
	}

	return summary
}

func printTraceSummaryText(w io.Writer, s *TraceSummary) {
	fmt.Fprintf(w, "Run: %s\n", s.RunID)
	fmt.Fprintf(w, "Events: %d in %d chunks\n", s.TotalEvents, s.Chunks)
	fmt.Fprintf(w, "Calls: %d functions, %d builtins\n", s.FunctionCalls, s.BuiltinCalls)
	names := make([]string, 0, len(s.CallsByName))
	for name := range s.CallsByName {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %d\n", name, s.CallsByName[name])
	}
	fmt.Fprintf(w, "Errors: %d (%d recovered)\n", s.Errors, s.Recovered)
	if s.DurationMs > 0 {
		fmt.Fprintf(w, "Duration: %.0fms\n", s.DurationMs)
	}
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("cannot parse time: %s", s)
}
