package main

import (
	"reflect"
	"testing"
)

func TestRewriteDirectTaskLookupArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"lobster"},
			want: []string{"lobster"},
		},
		{
			name: "direct task id first token",
			in:   []string{"lobster", "task-abc123"},
			want: []string{"lobster", "tasks", "show", "task-abc123"},
		},
		{
			name: "direct task id after value flag",
			in:   []string{"lobster", "--dir", "./tmp", "task-abc123"},
			want: []string{"lobster", "--dir", "./tmp", "tasks", "show", "task-abc123"},
		},
		{
			name: "direct task id after equals flag",
			in:   []string{"lobster", "--dir=./tmp", "task-abc123"},
			want: []string{"lobster", "--dir=./tmp", "tasks", "show", "task-abc123"},
		},
		{
			name: "direct task id after bool flag",
			in:   []string{"lobster", "--pretty", "task-abc123"},
			want: []string{"lobster", "--pretty", "tasks", "show", "task-abc123"},
		},
		{
			name: "direct task id after double dash",
			in:   []string{"lobster", "--", "task-abc123"},
			want: []string{"lobster", "--", "tasks", "show", "task-abc123"},
		},
		{
			name: "normal subcommand not rewritten",
			in:   []string{"lobster", "start", "task-abc123"},
			want: []string{"lobster", "start", "task-abc123"},
		},
		{
			name: "bare prefix not rewritten",
			in:   []string{"lobster", "task-"},
			want: []string{"lobster", "task-"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rewriteDirectTaskLookupArgs(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("rewriteDirectTaskLookupArgs:\n got: %#v\nwant: %#v", got, tt.want)
			}
		})
	}
}
