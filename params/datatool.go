package params

import (
	"bytes"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
)

// DefaultBinary is the datatool binary looked up on PATH.
const DefaultBinary = "strata-datatool"

// Datatool invokes the external key-derivation and parameter tooling.
// Every subcommand runs against the regtest network.
type Datatool struct {
	// Binary overrides the datatool binary path; empty uses DefaultBinary.
	Binary  string
	Network string
	Log     log.Logger
}

func NewDatatool(logger log.Logger) *Datatool {
	return &Datatool{
		Binary:  DefaultBinary,
		Network: "regtest",
		Log:     logger.New("role", "datatool"),
	}
}

// run executes one datatool subcommand, requiring a zero exit status.
// Trimmed stdout is returned; whether it may be empty is up to the caller.
func (d *Datatool) run(args ...string) (string, error) {
	bin := d.Binary
	if bin == "" {
		bin = DefaultBinary
	}
	full := append([]string{"-b", d.Network}, args...)
	d.Log.Debug("Running datatool", "bin", bin, "args", full)

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(bin, full...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", errors.Wrapf(err, "datatool %s failed: %s", args[0], stderr.String())
	}
	return strings.TrimSpace(stdout.String()), nil
}

// runForOutput is run plus a hard failure on empty output, for
// subcommands whose stdout is the artifact.
func (d *Datatool) runForOutput(args ...string) (string, error) {
	out, err := d.run(args...)
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", errors.Errorf("datatool %s produced no output", args[0])
	}
	return out, nil
}

// GenSeed writes a fresh seed artifact at path.
func (d *Datatool) GenSeed(path string) error {
	_, err := d.run("genseed", "-f", path)
	return err
}

// GenSeqPubkey derives the sequencer pubkey from the seed at seedPath.
func (d *Datatool) GenSeqPubkey(seedPath string) (string, error) {
	return d.runForOutput("genseqpubkey", "-f", seedPath)
}

// GenOpXpub derives an operator extended pubkey from the seed at seedPath.
func (d *Datatool) GenOpXpub(seedPath string) (string, error) {
	return d.runForOutput("genopxpub", "-f", seedPath)
}

// GenParams produces the serialized rollup params document from settings
// and the sequencer/operator keys.
func (d *Datatool) GenParams(name string, settings Settings, seqPubkey string, opPubkeys []string) (string, error) {
	args := []string{
		"genparams",
		"--name", name,
		"--block-time", strconv.FormatUint(settings.BlockTimeSec, 10),
		"--epoch-slots", strconv.FormatUint(settings.EpochSlots, 10),
		"--genesis-trigger-height", strconv.FormatUint(settings.GenesisTriggerHeight, 10),
		"--seqkey", seqPubkey,
	}
	if settings.ProofTimeoutSec != nil {
		args = append(args, "--proof-timeout", strconv.FormatUint(*settings.ProofTimeoutSec, 10))
	}
	for _, k := range opPubkeys {
		args = append(args, "--opkey", k)
	}
	return d.runForOutput(args...)
}

// SimpleParams is the result of GenerateSimpleParams: a params document
// plus the per-operator seed file paths.
type SimpleParams struct {
	Params      string
	OpSeedPaths []string
}

// GenerateSimpleParams creates a full parameter set under baseDir: one
// sequencer seed, operatorCount operator seeds, and the params document
// derived from them.
func (d *Datatool) GenerateSimpleParams(baseDir string, settings Settings, operatorCount int) (*SimpleParams, error) {
	seqSeedPath := filepath.Join(baseDir, "seqkey.bin")
	opSeedPaths := make([]string, operatorCount)
	for i := range opSeedPaths {
		opSeedPaths[i] = filepath.Join(baseDir, fmt.Sprintf("opkey%d.bin", i))
	}

	for _, p := range append([]string{seqSeedPath}, opSeedPaths...) {
		if err := d.GenSeed(p); err != nil {
			return nil, err
		}
	}

	seqKey, err := d.GenSeqPubkey(seqSeedPath)
	if err != nil {
		return nil, err
	}
	opXpubs := make([]string, 0, operatorCount)
	for _, p := range opSeedPaths {
		xpub, err := d.GenOpXpub(p)
		if err != nil {
			return nil, err
		}
		opXpubs = append(opXpubs, xpub)
	}

	doc, err := d.GenParams("alpenstrata", settings, seqKey, opXpubs)
	if err != nil {
		return nil, err
	}
	d.Log.Info("Generated rollup params", "operators", operatorCount)
	return &SimpleParams{Params: doc, OpSeedPaths: opSeedPaths}, nil
}
