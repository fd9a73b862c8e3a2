package suppress

import (
	"strings"

	"github.com/pkg/errors"
)

type (
	// Target is what a request suppresses.
	Target int

	// Direction says whether a request begins or ends suppression.
	Direction int

	// Params are the raw suppressOutput step parameters as written in a
	// changelog.
	Params struct {
		StartOrStop string `yaml:"startOrStop"`
		Suppress    string `yaml:"suppress"`
	}

	// Request is a validated suppression step.
	Request struct {
		Target    Target
		Direction Direction
	}
)

const (
	// Execution suppresses running statements against the database.
	Execution Target = iota + 1

	// Output suppresses statements in the rendered SQL script.
	Output
)

const (
	// Start begins suppressing a target.
	Start Direction = iota + 1

	// Stop ends suppressing a target.
	Stop
)

// ParseTarget maps EXECUTE and SQLFILE (in any case) to a Target.
func ParseTarget(s string) (Target, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "EXECUTE":
		return Execution, nil
	case "SQLFILE":
		return Output, nil
	case "":
		return 0, errors.Wrap(ErrConfiguration, "please give 'suppress' parameter")
	default:
		return 0, errors.Wrapf(ErrConfiguration, "unknown suppress value %q, expected EXECUTE or SQLFILE", s)
	}
}

// ParseDirection maps START and STOP (in any case) to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "START":
		return Start, nil
	case "STOP":
		return Stop, nil
	case "":
		return 0, errors.Wrap(ErrConfiguration, "please give 'startOrStop' parameter")
	default:
		return 0, errors.Wrapf(ErrConfiguration, "unknown startOrStop value %q, expected START or STOP", s)
	}
}

// NewRequest parses and validates step parameters. Both parameters are
// required.
func NewRequest(p Params) (Request, error) {
	dir, err := ParseDirection(p.StartOrStop)
	if err != nil {
		return Request{}, err
	}

	target, err := ParseTarget(p.Suppress)
	if err != nil {
		return Request{}, err
	}

	return Request{Target: target, Direction: dir}, nil
}

// Validate fails with ErrConfiguration when either field is unset.
func (r Request) Validate() error {
	switch r.Direction {
	case Start, Stop:
	default:
		return errors.Wrap(ErrConfiguration, "please give 'startOrStop' parameter")
	}

	switch r.Target {
	case Execution, Output:
	default:
		return errors.Wrap(ErrConfiguration, "please give 'suppress' parameter")
	}

	return nil
}

// Inverse returns the request that undoes r.
func (r Request) Inverse() Request {
	switch r.Direction {
	case Start:
		r.Direction = Stop
	case Stop:
		r.Direction = Start
	}

	return r
}

// Params converts r back to the parameters it was parsed from.
func (r Request) Params() Params {
	return Params{StartOrStop: r.Direction.String(), Suppress: r.Target.String()}
}

// ConfirmationMessage describes the state after r was applied.
func (r Request) ConfirmationMessage() string {
	var sb strings.Builder
	sb.WriteString("SuppressOutput: ")

	if r.Target == Execution {
		sb.WriteString("Actual execution to database")
	} else {
		sb.WriteString("Outputting statements to SQL output file")
	}

	sb.WriteString(" is now ")

	if r.Direction == Start {
		sb.WriteString("suppressed")
	} else {
		sb.WriteString("not suppressed anymore")
	}

	return sb.String()
}

func (r Request) String() string {
	return r.Direction.String() + " " + r.Target.String()
}

func (t Target) String() string {
	switch t {
	case Execution:
		return "EXECUTE"
	case Output:
		return "SQLFILE"
	default:
		return "UNSET"
	}
}

func (d Direction) String() string {
	switch d {
	case Start:
		return "START"
	case Stop:
		return "STOP"
	default:
		return "UNSET"
	}
}
