package main

import (
	"slices"
	"testing"
)

func TestParseOffset(t *testing.T) {
	tests := []struct {
		input   string
		want    []int
		wantErr bool
	}{
		{input: "15,-5", want: []int{15, -5}},
		{input: " 0 , 3 ", want: []int{0, 3}},
		{input: "", want: nil},
		{input: "15", wantErr: true},
		{input: "1,2,3", wantErr: true},
		{input: "a,b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseOffset(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseOffset(%q) should fail", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseOffset(%q) error = %v", tt.input, err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("parseOffset(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRootCmd_Flags(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"config", "dest", "imagery", "offset", "skip-existing", "verbose", "dry-run"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("flag --%s not defined", name)
		}
	}
}
