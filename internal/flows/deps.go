package flows

// Deps groups flow dependency sets. The guard builds this once and delegates
// each transition to the matching flow.
type Deps struct {
	Check    CheckDeps
	Teardown TeardownDeps
}
