// Package persistence stores pipeline run state between invocations.
//
// The state records, per generator target, the fingerprint of the RDL it
// was generated from so unchanged targets can be skipped.
package persistence
