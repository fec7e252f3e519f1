package mcpserver

// Tool descriptions with interpretation guidance for LLMs.

func describeMetrics() string {
	return `Computes object-oriented metrics for every Python module under the given paths.

USE WHEN:
- Looking for classes that are hard to change or test
- Ranking files for review by coupling or cohesion
- Comparing a revision against the working tree (pass ref)

INTERPRETING RESULTS:
- lcom near 1: methods share few attributes, the class likely does several jobs
- lcom below 0: methods share more attributes than there are method pairs
- cbo > 10: the module calls into many collaborators
- rfc grows with both size and coupling; compare it with numberOfMethods
- dit >= 4: deep in-file inheritance, behaviour is spread across levels
- fanIn high: many call sites depend on these methods
- Failures are classified as indentation, syntax, inheritance_cycle, traversal or other

METRICS RETURNED:
- Per-file: cbo, dit, fanIn, fanOut, lcom, noc, rfc, wmc, numberOfMethods,
  numberOfAttributes, numberOfLinesOfCode, visibility counts
- Summary: mean, stddev, p50, p90 and max per metric, failure counts by kind`
}

func describeSource() string {
	return `Computes object-oriented metrics for one Python module passed as text.

USE WHEN:
- Checking a class before it is written to disk
- Explaining a single record without scanning a project

INTERPRETING RESULTS:
- Same metrics and failure kinds as analyze_metrics
- A failure carries the line and column where parsing stopped`
}
