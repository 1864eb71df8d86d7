package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppRequest_Apply(t *testing.T) {
	base := AppDefinition{
		ID:               "web",
		ExecutablePath:   "/bin/web",
		Arguments:        []string{"--port", "80"},
		WorkingDirectory: "/srv",
		Enabled:          true,
		Hidden:           true,
		RestartPolicy:    RestartPolicy{AutoRestart: true, DelaySeconds: 2, MaxRestarts: 4},
	}
	exe := "/bin/other"
	noArgs := []string{}
	dir := ""
	off := false
	three := 3

	tests := []struct {
		name   string
		req    AppRequest
		mutate func(*AppDefinition)
	}{
		{
			name:   "empty body keeps everything",
			req:    AppRequest{},
			mutate: func(*AppDefinition) {},
		},
		{
			name:   "policy only",
			req:    AppRequest{MaxRestarts: &three},
			mutate: func(d *AppDefinition) { d.MaxRestarts = 3 },
		},
		{
			name: "explicit zero values",
			req:  AppRequest{Arguments: &noArgs, WorkingDirectory: &dir, Hidden: &off, AutoRestart: &off},
			mutate: func(d *AppDefinition) {
				d.Arguments = nil
				d.WorkingDirectory = ""
				d.Hidden = false
				d.AutoRestart = false
			},
		},
		{
			name: "id and executable",
			req:  AppRequest{ID: "api", ExecutablePath: &exe},
			mutate: func(d *AppDefinition) {
				d.ID = "api"
				d.ExecutablePath = exe
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := base.Clone()
			tt.mutate(&want)
			assert.Equal(t, want, tt.req.Apply(base))
		})
	}
}

func TestAppRequest_ApplyDoesNotAlias(t *testing.T) {
	arguments := []string{"a"}
	def := AppRequest{Arguments: &arguments}.Apply(AppDefinition{})

	arguments[0] = "b"
	assert.Equal(t, []string{"a"}, def.Arguments)
}
