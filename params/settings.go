// Package params generates rollup parameter sets for a harness run by
// driving the strata-datatool binary: seed generation, sequencer and
// operator pubkey derivation, and the final params document.
package params

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Defaults for a regtest harness run.
const (
	DefaultBlockTimeSec         = 1
	DefaultEpochSlots           = 64
	DefaultGenesisTriggerHeight = 5
	DefaultProofTimeoutSec      = 5
)

// Settings are the tunable rollup parameters fed to the datatool.
type Settings struct {
	BlockTimeSec         uint64 `toml:"block_time_sec"`
	EpochSlots           uint64 `toml:"epoch_slots"`
	GenesisTriggerHeight uint64 `toml:"genesis_trigger_height"`
	// ProofTimeoutSec, when set, makes the sequencer accept an empty
	// fallback proof after the timeout elapses without a real submission.
	// Nil means proofs must be submitted explicitly.
	ProofTimeoutSec *uint64 `toml:"proof_timeout_sec"`
}

// DefaultSettings returns the regtest defaults used by the harness.
func DefaultSettings() Settings {
	timeout := uint64(DefaultProofTimeoutSec)
	return Settings{
		BlockTimeSec:         DefaultBlockTimeSec,
		EpochSlots:           DefaultEpochSlots,
		GenesisTriggerHeight: DefaultGenesisTriggerHeight,
		ProofTimeoutSec:      &timeout,
	}
}

// ProofTimeout returns the proof timeout as a duration, or false when
// unset.
func (s Settings) ProofTimeout() (time.Duration, bool) {
	if s.ProofTimeoutSec == nil {
		return 0, false
	}
	return time.Duration(*s.ProofTimeoutSec) * time.Second, true
}

// LoadSettings reads settings from a TOML file so a run can be pinned to
// a fixed parameter set.
func LoadSettings(path string) (Settings, error) {
	var s Settings
	if _, err := toml.DecodeFile(path, &s); err != nil {
		return Settings{}, errors.Wrapf(err, "loading settings from %s", path)
	}
	return s, nil
}

// SaveSettings writes settings as TOML.
func SaveSettings(path string, s Settings) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer f.Close()
	return errors.Wrapf(toml.NewEncoder(f).Encode(s), "encoding settings to %s", path)
}
