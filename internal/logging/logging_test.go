package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevels(t *testing.T) {
	tests := []struct {
		level   string
		debug   bool
		warn    bool
		wantErr bool
	}{
		{level: "debug", debug: true, warn: true},
		{level: "info", warn: true},
		{level: "", warn: true},
		{level: "error"},
		{level: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			log, err := NewWithWriter(tt.level, &buf)
			if tt.wantErr {
				if err == nil {
					t.Error("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}

			log.Debug("d-message")
			log.Warn("w-message")
			_ = log.Sync()

			out := buf.String()
			if got := strings.Contains(out, "d-message"); got != tt.debug {
				t.Errorf("debug logged = %v, want %v", got, tt.debug)
			}
			if got := strings.Contains(out, "w-message"); got != tt.warn {
				t.Errorf("warn logged = %v, want %v", got, tt.warn)
			}
		})
	}
}
