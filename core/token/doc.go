// Package token provides the heuristic token estimator shared by the
// formatter and the session orchestrator.
package token
