package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestGoal_JSON_Roundtrip(t *testing.T) {
	t.Parallel()

	g := Goal{
		ID:           7,
		Title:        "learn Go",
		Status:       StatusInProgress,
		Duration:     2,
		DurationUnit: "weeks",
		Priority:     "high",
		Subtasks:     []Subtask{{Text: "tour", Completed: true}, {Text: "book"}},
	}
	b, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"subtasks":"[`) {
		t.Fatalf("subtasks must be serialized as a string document: %s", b)
	}
	var back Goal
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(back.Subtasks) != 2 || !back.Subtasks[0].Completed || back.Subtasks[1].Completed {
		t.Fatalf("roundtrip lost subtasks: %+v", back.Subtasks)
	}
}

func TestGoal_UnmarshalJSON_LegacyShapes(t *testing.T) {
	t.Parallel()

	// legacy wire: subtasks as a string holding a plain string array
	var g Goal
	if err := json.Unmarshal([]byte(`{"id":1,"title":"t","subtasks":"[\"a\",\"b\"]"}`), &g); err != nil {
		t.Fatalf("legacy string doc: %v", err)
	}
	if len(g.Subtasks) != 2 || g.Subtasks[0].Completed {
		t.Fatalf("legacy subtasks must read incomplete: %+v", g.Subtasks)
	}

	// inline array, structured
	var g2 Goal
	if err := json.Unmarshal([]byte(`{"id":2,"subtasks":[{"text":"x","completed":true}]}`), &g2); err != nil {
		t.Fatalf("inline array: %v", err)
	}
	if len(g2.Subtasks) != 1 || !g2.Subtasks[0].Completed {
		t.Fatalf("inline subtasks: %+v", g2.Subtasks)
	}

	// missing subtasks
	var g3 Goal
	if err := json.Unmarshal([]byte(`{"id":3}`), &g3); err != nil || g3.Subtasks != nil {
		t.Fatalf("missing subtasks: %+v err=%v", g3.Subtasks, err)
	}
}
