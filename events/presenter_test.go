package events

import (
	"strings"
	"testing"

	"github.com/diskenc-io/agent/types"
)

func TestDecryptOutcome(t *testing.T) {
	tests := []struct {
		name        string
		code        int
		wantTitle   string
		wantSev     types.Severity
		wantMention string
	}{
		{"success", 0, "Decrypt done", types.SeverityInfo, "has been decrypted"},
		{"user cancelled", -types.CodeUserCancelled, "Decrypt disk", types.SeverityInfo, "User cancelled operation"},
		{"wrong passphrase", -types.CodeWrongPassphrase, "Decrypt disk", types.SeverityError, "Wrong passphrase or PIN"},
		{"generic failure", -77, "Decrypt failed", types.SeverityError, "(-77)"},
		{"unexpected positive code", 12, "Decrypt failed", types.SeverityError, "(12)"},
	}

	for _, tt := range tests {
		got := DecryptOutcome("/dev/sda2", "data", tt.code)
		if got.Title != tt.wantTitle {
			t.Errorf("%s: title %q, want %q", tt.name, got.Title, tt.wantTitle)
		}
		if got.Severity != tt.wantSev {
			t.Errorf("%s: severity %v, want %v", tt.name, got.Severity, tt.wantSev)
		}
		if !strings.Contains(got.Message, tt.wantMention) {
			t.Errorf("%s: message %q does not mention %q", tt.name, got.Message, tt.wantMention)
		}
	}
}

func TestPreencryptOutcome(t *testing.T) {
	tests := []struct {
		name      string
		code      int
		wantTitle string
		wantSev   types.Severity
	}{
		{"success", 0, "Preencrypt done", types.SeverityInfo},
		{"user cancelled", -types.CodeUserCancelled, "Encrypt disk", types.SeverityInfo},
		{"generic failure", -9, "Preencrypt failed", types.SeverityError},
	}

	for _, tt := range tests {
		got := PreencryptOutcome("/dev/sda2", "data", tt.code)
		if got.Title != tt.wantTitle {
			t.Errorf("%s: title %q, want %q", tt.name, got.Title, tt.wantTitle)
		}
		if got.Severity != tt.wantSev {
			t.Errorf("%s: severity %v, want %v", tt.name, got.Severity, tt.wantSev)
		}
	}
}

func TestEncryptOutcome(t *testing.T) {
	ok := EncryptOutcome("/dev/sda2", "data", 0)
	if ok.Title != "Encrypt done" || ok.Severity != types.SeverityInfo {
		t.Errorf("success: got (%q, %v)", ok.Title, ok.Severity)
	}
	if !strings.Contains(ok.Message, "data(sda2)") {
		t.Errorf("success: message %q missing device label", ok.Message)
	}

	failed := EncryptOutcome("/dev/sda2", "data", -3)
	if failed.Title != "Encrypt failed" || failed.Severity != types.SeverityError {
		t.Errorf("failure: got (%q, %v)", failed.Title, failed.Severity)
	}
	if !strings.Contains(failed.Message, "(-3)") {
		t.Errorf("failure: message %q missing raw code", failed.Message)
	}
}

func TestChangePassphraseOutcome(t *testing.T) {
	tests := []struct {
		name      string
		code      int
		wantTitle string
		wantSev   types.Severity
	}{
		{"success", 0, "Change passphrase done", types.SeverityInfo},
		{"user cancelled", -types.CodeUserCancelled, "Change passphrase", types.SeverityInfo},
		{"change failed", -types.CodeChangePassphraseFailed, "Change passphrase failed", types.SeverityError},
		{"generic failure", -42, "Change passphrase failed", types.SeverityError},
	}

	for _, tt := range tests {
		got := ChangePassphraseOutcome("/dev/sda2", "data", tt.code)
		if got.Title != tt.wantTitle {
			t.Errorf("%s: title %q, want %q", tt.name, got.Title, tt.wantTitle)
		}
		if got.Severity != tt.wantSev {
			t.Errorf("%s: severity %v, want %v", tt.name, got.Severity, tt.wantSev)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := types.DisplayName("/dev/nvme0n1p3", "system"); got != "system(nvme0n1p3)" {
		t.Errorf("got %q", got)
	}
	if got := types.DisplayName("sda2", "data"); got != "data(sda2)" {
		t.Errorf("non /dev path: got %q", got)
	}
}
