package detect

import (
	"reflect"
	"testing"
)

func TestAppendUnique(t *testing.T) {
	tests := []struct {
		name   string
		list   []string
		value  string
		expect []string
	}{
		{"appends new value", []string{"React"}, "Vue.js", []string{"React", "Vue.js"}},
		{"keeps insertion order", []string{"B", "A"}, "C", []string{"B", "A", "C"}},
		{"suppresses exact duplicate", []string{"React"}, "React", []string{"React"}},
		{"suppresses case-insensitive duplicate", []string{"React"}, "react", []string{"React"}},
		{"ignores empty value", []string{"React"}, "", []string{"React"}},
		{"ignores whitespace value", []string{"React"}, "  ", []string{"React"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := appendUnique(tt.list, tt.value)
			if !reflect.DeepEqual(got, tt.expect) {
				t.Errorf("appendUnique(%v, %q) = %v, want %v", tt.list, tt.value, got, tt.expect)
			}
		})
	}
}
