package config_test

import (
	"bytes"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/louisbranch/estateledger/internal/platform/config"
)

func TestFprintf_PrefixesService(t *testing.T) {
	var buf bytes.Buffer
	code := config.Fprintf(&buf, config.ExitConfig, "ledgerd", "parse flags: %v\n", "bad port")
	if code != config.ExitConfig {
		t.Fatalf("code = %d, want %d", code, config.ExitConfig)
	}
	if got := buf.String(); got != "ledgerd: parse flags: bad port\n" {
		t.Fatalf("output = %q", got)
	}

	buf.Reset()
	config.Fprintf(&buf, config.ExitFailure, " ", "boom")
	if got := buf.String(); got != "boom\n" {
		t.Fatalf("output without service = %q", got)
	}
}

// TestExitf_ExitsWithCode runs Exitf in a subprocess because os.Exit cannot
// be intercepted in-process.
func TestExitf_ExitsWithCode(t *testing.T) {
	if os.Getenv("TEST_EXITF_SUBPROCESS") == "1" {
		config.Exitf(config.ExitConfig, "chaincode", "parse flags: %s", "missing ccid")
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestExitf_ExitsWithCode$")
	cmd.Env = append(os.Environ(), "TEST_EXITF_SUBPROCESS=1")

	out, err := cmd.CombinedOutput()

	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		t.Fatalf("expected *exec.ExitError, got %T: %v", err, err)
	}
	if exitErr.ExitCode() != config.ExitConfig {
		t.Fatalf("exit code = %d, want %d", exitErr.ExitCode(), config.ExitConfig)
	}
	if !strings.Contains(string(out), "chaincode: parse flags: missing ccid") {
		t.Fatalf("output = %q", string(out))
	}
}
