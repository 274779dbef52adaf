package command

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"reload", CmdReload},
		{"  Refresh ", CmdReload},
		{"load mock", CmdMock},
		{"SYNC", CmdPoll},
		{"config", CmdPrompts},
		{"q", CmdQuit},
		{"unknown thing", "unknown thing"},
		{"   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
