package metrics

// calculate derives the composite metrics from the finished walk. The steps
// run in a fixed order: cbo reads the class set, rfc and wmc read the final
// method and call data.
func (a *accumulator) calculate(policy CyclePolicy) (*Record, error) {
	r := a.counts

	// cbo
	external := make(map[string]bool)
	for _, targets := range a.calls {
		for t := range targets {
			if !a.declared[t] {
				external[t] = true
			}
		}
	}
	r.CBO = len(external)

	// dit
	dit, err := maxDepth(a.classes, a.inheritance, policy)
	if err != nil {
		return nil, err
	}
	r.DIT = dit

	// fan-out
	r.FanOut = make(map[string]int, len(a.calls))
	for method, targets := range a.calls {
		r.FanOut[method] = len(targets)
	}

	// fan-in
	r.FanIn = make(map[string]int)
	for _, targets := range a.calls {
		for t := range targets {
			r.FanIn[t]++
		}
	}
	for _, method := range a.methods {
		if _, ok := r.FanIn[method]; !ok {
			r.FanIn[method] = 0
		}
	}

	// lcom
	r.LCOM = a.access.lackOfCohesion()

	// rfc
	r.RFC = r.NumberOfMethods
	for _, targets := range a.calls {
		r.RFC += len(targets)
	}

	// wmc
	r.WMC = r.NumberOfMethods

	// noc
	r.NOC = childEdges(a.declared, a.inheritance)

	return &r, nil
}
