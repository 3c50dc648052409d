package reconcile

import (
	"errors"
	"fmt"
)

var (
	ErrRemoteInaccessible = errors.New("remote repository is not valid or not accessible")
	ErrNotImplemented     = errors.New("not yet implemented")
	ErrRemoteMismatch     = errors.New("local repository is bound to a different remote")
	ErrPathCollision      = errors.New("path already exists")
	ErrDetachedHead       = errors.New("no branch checked out")
)

// UnsupportedScenarioError is returned for the scenarios that require a human
// to decide how local and remote history relate.
type UnsupportedScenarioError struct {
	Scenario      Scenario
	LocalPath     string
	RepositoryURI string
}

func (e *UnsupportedScenarioError) Error() string {
	var detail string
	switch e.Scenario {
	case ScenarioLocalOnlyNoRemote:
		detail = "local directory has files but the remote repository is empty"
	case ScenarioDivergentBothExist:
		detail = "both the local directory and the remote repository have content"
	default:
		detail = "unsupported state"
	}
	return fmt.Sprintf("%v: %s: %s (local %q, remote %q)", ErrNotImplemented, e.Scenario, detail, e.LocalPath, e.RepositoryURI)
}

func (e *UnsupportedScenarioError) Unwrap() error {
	return ErrNotImplemented
}
