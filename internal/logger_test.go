package internal

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestSetVerbose(t *testing.T) {
	originalLevel := logLevel
	defer func() { logLevel = originalLevel }()

	SetVerbose(true)
	if logLevel != LogLevelDebug {
		t.Errorf("SetVerbose(true) logLevel = %v, want LogLevelDebug", logLevel)
	}

	SetVerbose(false)
	if logLevel != LogLevelInfo {
		t.Errorf("SetVerbose(false) logLevel = %v, want LogLevelInfo", logLevel)
	}
}

func TestLogFunctions_RespectLevel(t *testing.T) {
	originalLevel := logLevel
	var buf bytes.Buffer
	SetLogOutput(&buf)
	defer func() {
		logLevel = originalLevel
		SetLogOutput(os.Stderr)
	}()

	SetLogLevel(LogLevelWarn)
	LogError("error %d", 1)
	LogWarn("warn %d", 2)
	LogInfo("info %d", 3)
	LogDebug("debug %d", 4)

	out := buf.String()
	for _, want := range []string{"[ERROR] error 1", "[WARN] warn 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
	for _, notWant := range []string{"info 3", "debug 4"} {
		if strings.Contains(out, notWant) {
			t.Errorf("log output should not contain %q at warn level", notWant)
		}
	}
}

func TestLogLevels(t *testing.T) {
	if !(LogLevelError < LogLevelWarn && LogLevelWarn < LogLevelInfo && LogLevelInfo < LogLevelDebug) {
		t.Error("log levels should increase in verbosity from error to debug")
	}
}
