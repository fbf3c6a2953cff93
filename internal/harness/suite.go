package harness

// SuiteResult summarizes a batch of scenario files.
type SuiteResult struct {
	Total    int               `json:"total"`
	Passed   int               `json:"passed"`
	Failed   int               `json:"failed"`
	Failures []ScenarioFailure `json:"failures,omitempty"`
}

// ScenarioFailure is one failing scenario file.
type ScenarioFailure struct {
	Path   string   `json:"path"`
	Name   string   `json:"name,omitempty"`
	Errors []string `json:"errors"`
}

// OK reports whether every scenario passed.
func (r *SuiteResult) OK() bool {
	return r.Failed == 0
}

// RunFiles loads and runs each scenario file. A file that fails to load or
// execute counts as a failure; it does not stop the suite.
func RunFiles(paths []string) *SuiteResult {
	sr := &SuiteResult{Failures: []ScenarioFailure{}}
	for _, path := range paths {
		sr.Total++

		scenario, err := LoadScenario(path)
		if err != nil {
			sr.fail(ScenarioFailure{Path: path, Errors: []string{err.Error()}})
			continue
		}
		result, err := Run(scenario)
		if err != nil {
			sr.fail(ScenarioFailure{Path: path, Name: scenario.Name, Errors: []string{err.Error()}})
			continue
		}
		if !result.Pass {
			sr.fail(ScenarioFailure{Path: path, Name: scenario.Name, Errors: result.Errors})
			continue
		}
		sr.Passed++
	}
	return sr
}

func (r *SuiteResult) fail(f ScenarioFailure) {
	r.Failed++
	r.Failures = append(r.Failures, f)
}
