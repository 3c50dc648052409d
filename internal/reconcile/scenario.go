package reconcile

// Scenario classifies the relationship between the local directory and the
// remote repository found at startup.
type Scenario int

const (
	// ScenarioAlreadyOpen: the local directory is a repository already.
	ScenarioAlreadyOpen Scenario = iota
	// ScenarioCloneIntoEmpty: the local directory holds no files. The remote
	// may or may not have any references.
	ScenarioCloneIntoEmpty
	// ScenarioLocalOnlyNoRemote: local files exist and the remote is empty.
	ScenarioLocalOnlyNoRemote
	// ScenarioDivergentBothExist: local files exist and the remote has
	// history of its own.
	ScenarioDivergentBothExist

	// scenarioUnknown labels failures that happen before classification.
	scenarioUnknown Scenario = -1
)

func (s Scenario) String() string {
	switch s {
	case ScenarioAlreadyOpen:
		return "alreadyOpen"
	case ScenarioCloneIntoEmpty:
		return "cloneIntoEmpty"
	case ScenarioLocalOnlyNoRemote:
		return "localOnlyNoRemote"
	case ScenarioDivergentBothExist:
		return "divergentBothExist"
	}
	return "unknown"
}

// Supported reports whether the scenario is resolved automatically.
func (s Scenario) Supported() bool {
	return s == ScenarioAlreadyOpen || s == ScenarioCloneIntoEmpty
}

// State is computed once at startup.
type State struct {
	IsRepository    bool
	LocalFilesExist bool
	RemoteHasRefs   bool
}

func Classify(s State) Scenario {
	switch {
	case s.IsRepository:
		return ScenarioAlreadyOpen
	case !s.LocalFilesExist:
		return ScenarioCloneIntoEmpty
	case !s.RemoteHasRefs:
		return ScenarioLocalOnlyNoRemote
	default:
		return ScenarioDivergentBothExist
	}
}
