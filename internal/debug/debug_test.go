package debug

import (
	"bytes"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func saveAndRestoreState() func() {
	originalDebug := EnableDebug
	originalQuiet := QuietMode
	originalOutput := debugOutput
	originalFile := debugFile
	return func() {
		EnableDebug = originalDebug
		QuietMode = originalQuiet
		debugOutput = originalOutput
		debugFile = originalFile
	}
}

func TestSetQuietMode(t *testing.T) {
	defer saveAndRestoreState()()

	SetQuietMode(true)
	assert.True(t, QuietMode)

	SetQuietMode(false)
	assert.False(t, QuietMode)
}

func TestIsDebugEnabled(t *testing.T) {
	defer saveAndRestoreState()()

	EnableDebug = "false"
	QuietMode = false
	assert.False(t, IsDebugEnabled())

	EnableDebug = "true"
	QuietMode = false
	assert.True(t, IsDebugEnabled())

	EnableDebug = "invalid"
	assert.False(t, IsDebugEnabled())
}

func TestLog(t *testing.T) {
	defer saveAndRestoreState()()

	var buf bytes.Buffer
	SetDebugOutput(&buf)
	EnableDebug = "true"
	QuietMode = false
	Log("TEST", "Hello %s", "World")

	output := buf.String()
	assert.Contains(t, output, "[DEBUG:TEST]")
	assert.Contains(t, output, "Hello World")
}

func TestLog_QuietMode(t *testing.T) {
	defer saveAndRestoreState()()

	var buf bytes.Buffer
	SetDebugOutput(&buf)
	EnableDebug = "true"
	QuietMode = true
	Log("TEST", "Should not appear")

	assert.Empty(t, buf.String())
}

func TestLogIndex(t *testing.T) {
	defer saveAndRestoreState()()

	var buf bytes.Buffer
	SetDebugOutput(&buf)
	EnableDebug = "true"
	QuietMode = false
	LogIndex("inserted %d words", 3)

	output := buf.String()
	assert.Contains(t, output, "[DEBUG:INDEX]")
	assert.Contains(t, output, "inserted 3 words")
}

func TestFatal(t *testing.T) {
	defer saveAndRestoreState()()

	var buf bytes.Buffer
	SetDebugOutput(&buf)
	QuietMode = false
	err := Fatal("test error: %s", "details")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "fatal error: test error: details")
	assert.Contains(t, buf.String(), "[FATAL]")

	buf.Reset()
	QuietMode = true
	err = Fatal("another error")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "fatal error: another error")
	assert.Empty(t, buf.String())
}

func TestFatalAndExit(t *testing.T) {
	defer saveAndRestoreState()()

	if os.Getenv("BE_FATAL_TEST") == "1" {
		var buf bytes.Buffer
		SetDebugOutput(&buf)
		QuietMode = false
		FatalAndExit("test fatal exit")
		return
	}

	assert.NotNil(t, FatalAndExit)

	cmd := exec.Command(os.Args[0], "-test.run=^TestFatalAndExit$")
	cmd.Env = append(os.Environ(), "BE_FATAL_TEST=1")
	err := cmd.Run()
	exitErr, ok := err.(*exec.ExitError)
	if assert.True(t, ok, "expected FatalAndExit to exit the process, got %v", err) {
		assert.Equal(t, 1, exitErr.ExitCode())
	}
}

func TestCatastrophicError(t *testing.T) {
	defer saveAndRestoreState()()

	var buf bytes.Buffer
	SetDebugOutput(&buf)
	QuietMode = false
	CatastrophicError("system failure: %s", "disk full")

	output := buf.String()
	assert.Contains(t, output, "[CATASTROPHIC]")
	assert.Contains(t, output, "system failure: disk full")
}

func TestCatastrophicError_QuietMode(t *testing.T) {
	defer saveAndRestoreState()()

	var buf bytes.Buffer
	SetDebugOutput(&buf)
	QuietMode = true
	CatastrophicError("should not appear")

	assert.Empty(t, buf.String())
}

func TestLogHelpers(t *testing.T) {
	defer saveAndRestoreState()()

	EnableDebug = "true"
	QuietMode = false

	tests := []struct {
		name    string
		logFunc func(string, ...interface{})
		prefix  string
		message string
	}{
		{"LogIndex", LogIndex, "[DEBUG:INDEX]", "indexing %d files"},
		{"LogPipeline", LogPipeline, "[DEBUG:PIPELINE]", "stage message: %s"},
		{"LogBlockFile", LogBlockFile, "[DEBUG:BLOCKFILE]", "block op: %s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			SetDebugOutput(&buf)

			tt.logFunc(tt.message, "test")

			output := buf.String()
			assert.Contains(t, output, tt.prefix)
			assert.True(t, strings.Contains(output, "test") || strings.Contains(output, tt.message))
		})
	}
}

func TestConcurrentLogging(t *testing.T) {
	defer saveAndRestoreState()()

	var buf bytes.Buffer
	SetDebugOutput(&buf)
	EnableDebug = "true"
	QuietMode = false

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(id int) {
			Log("CONCURRENT", "Message from goroutine %d", id)
			LogPipeline("pipeline from goroutine %d", id)
			LogIndex("index from goroutine %d", id)
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	assert.True(t, true)
}

func TestNoOutputWithNilWriter(t *testing.T) {
	defer saveAndRestoreState()()

	SetDebugOutput(nil)
	EnableDebug = "true"
	QuietMode = false

	Printf("test %s", "message")
	Println("test message")
	Log("TEST", "test %s", "message")
	LogPipeline("test %s", "message")
	LogIndex("test %s", "message")
	LogBlockFile("test %s", "message")
	Fatal("test %s", "message")
	CatastrophicError("test %s", "message")
}

func TestInitDebugLogFile(t *testing.T) {
	defer saveAndRestoreState()()

	logPath, err := InitDebugLogFile()
	assert.NoError(t, err)
	assert.NotEmpty(t, logPath)

	_, err = os.Stat(logPath)
	assert.NoError(t, err)

	EnableDebug = "true"
	QuietMode = false
	Printf("Test log message\n")

	err = CloseDebugLog()
	assert.NoError(t, err)

	content, err := os.ReadFile(logPath)
	assert.NoError(t, err)
	assert.Contains(t, string(content), "Test log message")

	os.Remove(logPath)
}
