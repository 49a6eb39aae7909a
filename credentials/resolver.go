package credentials

import (
	"encoding/json"
	"path/filepath"

	"github.com/anatol/luks.go"
	"github.com/jaypipes/ghw"
	"github.com/jaypipes/ghw/pkg/block"

	"github.com/diskenc-io/agent/types"
)

// systemd-cryptenroll writes this token type into the LUKS2 header for
// TPM-sealed keyslots; its payload carries whether a PIN is also required.
const tpm2TokenType = "systemd-tpm2"

// LUKSResolver classifies a device by reading its LUKS2 header: a TPM token
// with the PIN flag means TPM+PIN, without it TPM only, and a header with no
// TPM tokens is protected by a plain passphrase.
type LUKSResolver struct {
	log types.AgentLogger
}

func NewLUKSResolver(log types.AgentLogger) *LUKSResolver {
	return &LUKSResolver{log: log}
}

func (r *LUKSResolver) KeyScheme(dev string) types.CredentialScheme {
	p := r.partitionFor(dev)
	if p == nil || p.Type != "crypto_LUKS" {
		r.log.Logger.Debug().Str("device", dev).Msg("Not a LUKS partition")
		return types.SchemeUnknown
	}

	device, err := luks.Open(dev)
	if err != nil {
		r.log.Logger.Debug().Err(err).Str("device", dev).Msg("Cannot read LUKS header")
		return types.SchemeUnknown
	}
	defer device.Close()

	// LUKS1 has no token metadata at all.
	if device.Version() == 1 {
		return types.SchemePasswordOnly
	}

	tokens, err := device.Tokens()
	if err != nil {
		r.log.Logger.Debug().Err(err).Str("device", dev).Msg("Cannot read LUKS tokens")
		return types.SchemeUnknown
	}

	scheme := types.SchemePasswordOnly
	for _, t := range tokens {
		if t.Type != tpm2TokenType {
			continue
		}
		var payload struct {
			PIN bool `json:"tpm2-pin"`
		}
		if err := json.Unmarshal(t.Payload, &payload); err != nil {
			r.log.Logger.Debug().Err(err).Str("device", dev).Msg("Malformed TPM token payload")
			continue
		}
		if payload.PIN {
			return types.SchemeTPMAndPIN
		}
		scheme = types.SchemeTPMOnly
	}
	return scheme
}

// Label returns the partition label for dev, used as the display name when a
// daemon signal arrives without one. Empty when unknown.
func (r *LUKSResolver) Label(dev string) string {
	p := r.partitionFor(dev)
	if p == nil {
		return ""
	}
	return p.Label
}

func (r *LUKSResolver) partitionFor(dev string) *block.Partition {
	blk, err := ghw.Block()
	if err != nil {
		r.log.Logger.Warn().Err(err).Msg("Error reading block devices")
		return nil
	}
	for _, disk := range blk.Disks {
		for _, p := range disk.Partitions {
			if filepath.Join("/dev", p.Name) == dev {
				return p
			}
		}
	}
	return nil
}
