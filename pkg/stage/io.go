package stage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/stagegraph/pkg/errors"
)

// Formats accepted by [Decode].
const (
	FormatJSON = "json"
	FormatTOML = "toml"
)

// Input is one layout request: either a pipeline configuration or an
// execution, plus the view state to apply.
type Input struct {
	Pipeline  *Pipeline  `json:"pipeline,omitempty" toml:"pipeline"`
	Execution *Execution `json:"execution,omitempty" toml:"execution"`
	ViewState ViewState  `json:"viewState" toml:"view_state"`
}

// Validate checks that exactly one of Pipeline and Execution is set and that
// every stage has a usable ref id.
func (in Input) Validate() error {
	switch {
	case in.Pipeline == nil && in.Execution == nil:
		return errors.New(errors.ErrCodeInvalidInput, "input must contain a pipeline or an execution")
	case in.Pipeline != nil && in.Execution != nil:
		return errors.New(errors.ErrCodeInvalidInput, "input must not contain both a pipeline and an execution")
	}

	if in.Pipeline != nil {
		for i, s := range in.Pipeline.Stages {
			if err := errors.ValidateRefID(string(s.RefID)); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "stage %d", i)
			}
		}
		return nil
	}
	for i, s := range in.Execution.StageSummaries {
		if err := errors.ValidateRefID(string(s.RefID)); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "stage summary %d", i)
		}
	}
	return nil
}

// Decode reads an Input in the given format and validates it.
func Decode(r io.Reader, format string) (Input, error) {
	var in Input
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		if err := dec.Decode(&in); err != nil {
			return Input{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json input")
		}
	case FormatTOML:
		if _, err := toml.NewDecoder(r).Decode(&in); err != nil {
			return Input{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode toml input")
		}
	default:
		return Input{}, errors.New(errors.ErrCodeInvalidFormat, "unsupported input format %q", format)
	}
	if err := in.Validate(); err != nil {
		return Input{}, err
	}
	return in, nil
}

// ReadInputFile reads an Input from a .json or .toml file.
func ReadInputFile(path string) (Input, error) {
	if err := errors.ValidateInputPath(path); err != nil {
		return Input{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Input{}, errors.Wrap(errors.ErrCodeNotFound, err, "read %s", path)
		}
		return Input{}, fmt.Errorf("read %s: %w", path, err)
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return Decode(bytes.NewReader(data), format)
}

// Mode returns "pipeline" or "execution" depending on which document is set.
func (in Input) Mode() string {
	if in.Execution != nil {
		return "execution"
	}
	return "pipeline"
}

// StageCount returns the number of stages in the document that is set.
func (in Input) StageCount() int {
	switch {
	case in.Execution != nil:
		return len(in.Execution.StageSummaries)
	case in.Pipeline != nil:
		return len(in.Pipeline.Stages)
	}
	return 0
}
