package credentials

import (
	"fmt"

	tpm "github.com/kairos-io/tpm-helpers"
)

// DefaultPassphraseNVIndex is the TPM NV index the daemon seals device
// passphrases under when no index is configured.
const DefaultPassphraseNVIndex = "0x1500000"

// NVDeriver reads the passphrase the daemon sealed into TPM NV memory. It is
// the read-only counterpart of the daemon's enrollment step; this agent never
// creates or stores secrets.
type NVDeriver struct {
	NVIndex string
	CIndex  string
	Device  string
}

func (d *NVDeriver) Derive(dev, pin string) (string, error) {
	// PIN-bound secrets are unsealed inside the TPM policy session the
	// daemon set up; the local read path has no way to present the PIN, so
	// those devices need a discovery provider (see DiscoveryDeriver).
	if pin != "" {
		return "", fmt.Errorf("device %s is PIN-bound and no discovery provider answered", dev)
	}

	nvIndex := d.NVIndex
	if nvIndex == "" {
		nvIndex = DefaultPassphraseNVIndex
	}

	opts := []tpm.TPMOption{tpm.WithIndex(nvIndex)}
	if d.Device != "" {
		opts = append(opts, tpm.WithDevice(d.Device))
	}
	blob, err := tpm.ReadBlob(opts...)
	if err != nil {
		return "", fmt.Errorf("reading sealed passphrase for %s: %w", dev, err)
	}

	decryptOpts := []tpm.TPMOption{}
	if d.CIndex != "" {
		decryptOpts = append(decryptOpts, tpm.WithIndex(d.CIndex))
	}
	if d.Device != "" {
		decryptOpts = append(decryptOpts, tpm.WithDevice(d.Device))
	}
	pass, err := tpm.DecryptBlob(blob, decryptOpts...)
	if err != nil {
		return "", fmt.Errorf("unsealing passphrase for %s: %w", dev, err)
	}
	return string(pass), nil
}
