package bus

import (
	"testing"

	"github.com/godbus/dbus/v5"

	"github.com/diskenc-io/agent/types"
)

type recordedCall struct {
	method   string
	dev      string
	devName  string
	aux      string
	code     int
	fraction float64
}

type recordingHandler struct {
	calls []recordedCall
}

func (r *recordingHandler) OnPreencryptResult(dev, devName, aux string, code int) {
	r.calls = append(r.calls, recordedCall{method: "preencrypt", dev: dev, devName: devName, aux: aux, code: code})
}

func (r *recordingHandler) OnEncryptResult(dev, devName string, code int) {
	r.calls = append(r.calls, recordedCall{method: "encrypt", dev: dev, devName: devName, code: code})
}

func (r *recordingHandler) OnEncryptProgress(dev, devName string, fraction float64) {
	r.calls = append(r.calls, recordedCall{method: "encrypt-progress", dev: dev, devName: devName, fraction: fraction})
}

func (r *recordingHandler) OnDecryptResult(dev, devName, aux string, code int) {
	r.calls = append(r.calls, recordedCall{method: "decrypt", dev: dev, devName: devName, aux: aux, code: code})
}

func (r *recordingHandler) OnDecryptProgress(dev, devName string, fraction float64) {
	r.calls = append(r.calls, recordedCall{method: "decrypt-progress", dev: dev, devName: devName, fraction: fraction})
}

func (r *recordingHandler) OnChangePassphraseResult(dev, devName, aux string, code int) {
	r.calls = append(r.calls, recordedCall{method: "change-passphrase", dev: dev, devName: devName, aux: aux, code: code})
}

type staticNamer struct{}

func (staticNamer) Label(string) string { return "from-namer" }

func signal(member string, body ...interface{}) *dbus.Signal {
	return &dbus.Signal{
		Path: DefaultDaemonObjectPath,
		Name: DefaultDaemonInterface + "." + member,
		Body: body,
	}
}

func newTestManager(h DaemonNotifications) *Manager {
	return NewManager(h, nil, types.NewNullLogger(), WithDeviceNamer(staticNamer{}))
}

func TestDispatchRoutesSignals(t *testing.T) {
	tests := []struct {
		name string
		sig  *dbus.Signal
		want recordedCall
	}{
		{
			"preencrypt result",
			signal(SignalPreencryptResult, "/dev/sda2", "data", "job-1", int32(-1)),
			recordedCall{method: "preencrypt", dev: "/dev/sda2", devName: "data", aux: "job-1", code: -1},
		},
		{
			"encrypt result",
			signal(SignalEncryptResult, "/dev/sda2", "data", int32(0)),
			recordedCall{method: "encrypt", dev: "/dev/sda2", devName: "data"},
		},
		{
			"encrypt progress",
			signal(SignalEncryptProgress, "/dev/sda2", "data", 0.42),
			recordedCall{method: "encrypt-progress", dev: "/dev/sda2", devName: "data", fraction: 0.42},
		},
		{
			"decrypt result with reboot sentinel",
			signal(SignalDecryptResult, "/dev/sda2", "data", "", int32(-types.CodeRebootRequired)),
			recordedCall{method: "decrypt", dev: "/dev/sda2", devName: "data", code: -types.CodeRebootRequired},
		},
		{
			"decrypt progress",
			signal(SignalDecryptProgress, "/dev/sda2", "data", 1.0),
			recordedCall{method: "decrypt-progress", dev: "/dev/sda2", devName: "data", fraction: 1.0},
		},
		{
			"change passphrase result",
			signal(SignalChangePassphraseResult, "/dev/sda2", "data", "", int32(-3)),
			recordedCall{method: "change-passphrase", dev: "/dev/sda2", devName: "data", code: -3},
		},
	}

	for _, tt := range tests {
		h := &recordingHandler{}
		newTestManager(h).dispatch(tt.sig)
		if len(h.calls) != 1 {
			t.Errorf("%s: got %d calls, want 1", tt.name, len(h.calls))
			continue
		}
		if h.calls[0] != tt.want {
			t.Errorf("%s: got %+v, want %+v", tt.name, h.calls[0], tt.want)
		}
	}
}

func TestDispatchDropsMalformedSignals(t *testing.T) {
	tests := []struct {
		name string
		sig  *dbus.Signal
	}{
		{"too few arguments", signal(SignalEncryptResult, "/dev/sda2", int32(0))},
		{"wrong code type", signal(SignalDecryptResult, "/dev/sda2", "data", "", "zero")},
		{"wrong progress type", signal(SignalEncryptProgress, "/dev/sda2", "data", int32(50))},
		{"unrelated member", signal("SomethingElse", "/dev/sda2")},
	}

	for _, tt := range tests {
		h := &recordingHandler{}
		newTestManager(h).dispatch(tt.sig)
		if len(h.calls) != 0 {
			t.Errorf("%s: got %d calls, want 0", tt.name, len(h.calls))
		}
	}
}

func TestDispatchFillsMissingDisplayName(t *testing.T) {
	h := &recordingHandler{}
	newTestManager(h).dispatch(signal(SignalEncryptProgress, "/dev/sda2", "", 0.5))

	if len(h.calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(h.calls))
	}
	if h.calls[0].devName != "from-namer" {
		t.Errorf("devName %q, want %q", h.calls[0].devName, "from-namer")
	}
}
