package timeline

import (
	"encoding/csv"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// StateDistribution counts how many entries occupied each state.
func StateDistribution(entries []Entry) map[State]int {
	dist := make(map[State]int)
	for _, e := range entries {
		dist[e.State]++
	}
	return dist
}

// AverageStepDuration returns the mean gap between consecutive entries.
func AverageStepDuration(entries []Entry) time.Duration {
	if len(entries) < 2 {
		return 0
	}
	var total time.Duration
	count := 0
	for _, e := range entries {
		if e.Duration > 0 {
			total += e.Duration
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / time.Duration(count)
}

// CriticalPath reconstructs the sequence of states from the first
// initialized entry to the first terminal (completed/failed) entry,
// skipping repeated self-loop states.
func CriticalPath(entries []Entry) []State {
	var path []State
	for _, e := range entries {
		if len(path) == 0 || path[len(path)-1] != e.State {
			path = append(path, e.State)
		}
		if e.State == StateCompleted || e.State == StateFailed {
			break
		}
	}
	return path
}

// FilterByState returns the subset of entries in the given state.
func FilterByState(entries []Entry, state State) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.State == state {
			out = append(out, e)
		}
	}
	return out
}

// FilterByEventType returns the subset of entries with the given event
// type.
func FilterByEventType(entries []Entry, eventType string) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

// ExportJSON serializes entries to JSON.
func ExportJSON(entries []Entry) ([]byte, error) {
	return json.Marshal(entries)
}

// ImportJSON deserializes entries from JSON, the inverse of ExportJSON.
func ImportJSON(data []byte) ([]Entry, error) {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ExportCSV serializes entries to CSV with a fixed column order.
func ExportCSV(entries []Entry) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write([]string{"id", "timestamp", "state", "eventType", "correlationId", "durationMs", "anomalous"}); err != nil {
		return "", err
	}
	for _, e := range entries {
		row := []string{
			e.ID,
			e.Timestamp.Format(time.RFC3339Nano),
			string(e.State),
			e.EventType,
			e.CorrelationID,
			strconv.FormatInt(e.Duration.Milliseconds(), 10),
			strconv.FormatBool(e.Anomalous),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return sb.String(), w.Error()
}

// RenderASCII draws a compact single-line arrow chain of states.
func RenderASCII(entries []Entry) string {
	states := make([]string, len(entries))
	for i, e := range entries {
		states[i] = string(e.State)
	}
	return strings.Join(states, " -> ")
}

// RenderDetailed draws one line per entry with timestamp and event type.
func RenderDetailed(entries []Entry) string {
	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(e.Timestamp.Format(time.RFC3339Nano))
		sb.WriteString(" [")
		sb.WriteString(string(e.State))
		sb.WriteString("] ")
		sb.WriteString(e.EventType)
		if e.Anomalous {
			sb.WriteString(" (anomalous)")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderCompact draws one character per entry: first letter of state,
// uppercased when anomalous.
func RenderCompact(entries []Entry) string {
	var sb strings.Builder
	for _, e := range entries {
		ch := string(e.State)[0]
		if e.Anomalous {
			sb.WriteString(strings.ToUpper(string(ch)))
		} else {
			sb.WriteString(strings.ToLower(string(ch)))
		}
	}
	return sb.String()
}
