package logger

import "testing"

func TestInit(t *testing.T) {
	tests := []struct {
		name  string
		level string
		env   string
	}{
		{name: "production info", level: "info", env: "production"},
		{name: "development debug", level: "debug", env: "development"},
		{name: "unknown level falls back", level: "loud", env: "development"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Init(tt.level, tt.env); err != nil {
				t.Fatalf("Init(%q, %q) error = %v", tt.level, tt.env, err)
			}
			if Log == nil {
				t.Fatal("Log is nil after Init")
			}
			Sync()
		})
	}
}
