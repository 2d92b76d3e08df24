package planner

import (
	"encoding/json"
	"fmt"
	"strings"
)

// judgeVerdict is the JSON object returned by the complexity judge.
type judgeVerdict struct {
	Decompose bool   `json:"decompose"`
	Reasoning string `json:"reasoning"`
}

// decomposedChild is one element of the decomposition response array.
type decomposedChild struct {
	Task  string  `json:"task"`
	Share float64 `json:"share"`
}

// parseJudge extracts the judge verdict from a model response. The model is
// told to return a bare JSON object, but responses sometimes carry prose or
// markdown fences around it, so we slice from the first "{" to the last "}".
func parseJudge(response string) (judgeVerdict, error) {
	var verdict judgeVerdict

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end <= start {
		return verdict, fmt.Errorf("no JSON object found in judge response")
	}

	if err := json.Unmarshal([]byte(response[start:end+1]), &verdict); err != nil {
		return verdict, fmt.Errorf("failed to parse judge response: %w", err)
	}
	return verdict, nil
}

// parseChildren extracts the sub-task array from a decomposition response.
// Entries with an empty task description are rejected; a negative share is
// rejected rather than clamped so the caller can retry with the stricter
// prompt.
func parseChildren(response string) ([]decomposedChild, error) {
	start := strings.Index(response, "[")
	end := strings.LastIndex(response, "]")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("no JSON array found in decomposition response")
	}

	var children []decomposedChild
	if err := json.Unmarshal([]byte(response[start:end+1]), &children); err != nil {
		return nil, fmt.Errorf("failed to parse decomposition response: %w", err)
	}
	if len(children) == 0 {
		return nil, fmt.Errorf("decomposition response contained no sub-tasks")
	}

	for i, c := range children {
		if strings.TrimSpace(c.Task) == "" {
			return nil, fmt.Errorf("sub-task %d has an empty task description", i)
		}
		if c.Share < 0 {
			return nil, fmt.Errorf("sub-task %d has a negative share %g", i, c.Share)
		}
	}
	return children, nil
}
