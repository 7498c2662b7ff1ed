package log

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Setup(LvlWarn, false, &buf)
	defer Setup(LvlInfo, false, os.Stderr)

	Info("below threshold", "k", 1)
	Warn("at threshold", "k", 2)
	Error("above threshold", "k", 3)

	out := buf.String()
	if strings.Contains(out, "below threshold") {
		t.Errorf("info record emitted at warn verbosity:\n%s", out)
	}
	for _, want := range []string{"at threshold", "above threshold", "WARN", "ERROR"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTraceGatedByVerbosity(t *testing.T) {
	var buf bytes.Buffer
	Setup(LvlDebug, false, &buf)
	defer Setup(LvlInfo, false, os.Stderr)

	Trace("hidden trace")
	Debug("visible debug")
	if strings.Contains(buf.String(), "hidden trace") {
		t.Errorf("trace record emitted at debug verbosity")
	}
	if !strings.Contains(buf.String(), "visible debug") {
		t.Errorf("debug record missing")
	}

	buf.Reset()
	Setup(LvlTrace, false, &buf)
	Trace("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Errorf("trace record missing at trace verbosity")
	}
}

func TestContextPairsRendered(t *testing.T) {
	var buf bytes.Buffer
	Setup(LvlInfo, false, &buf)
	defer Setup(LvlInfo, false, os.Stderr)

	Info("Status resolved", "code", "SR1234", "status", 20)
	out := buf.String()
	for _, want := range []string{"Status resolved", "SR1234", "20"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
