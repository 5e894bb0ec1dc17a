package main

import (
	"reflect"
	"testing"
)

func TestSplitPasses(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"copy_prop", []string{"copy_prop"}},
		{"copy_prop,dce", []string{"copy_prop", "dce"}},
		{" copy_prop , ,dce,", []string{"copy_prop", "dce"}},
		{"", nil},
	}

	for _, tt := range tests {
		if got := splitPasses(tt.input); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitPasses(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
