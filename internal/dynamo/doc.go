// Package dynamo provides the primitives shared by every stage of the
// surrogate evaluation pipeline.
//
// The package defines:
//
//   - [State]: the 11-component dynamics state vector
//     (quaternion, orbital phase, spin A, spin B)
//   - [Params]: the physical parameters of a binary
//   - [Error]: the error taxonomy ([ErrConfiguration], [ErrDomain],
//     [ErrPrecondition]) used by all evaluators
//
// # Example
//
//	p := dynamo.Params{MassRatio: 1.5, ChiA: chiA, ChiB: chiB}
//	if err := p.Validate(); err != nil {
//	    return err
//	}
//	y := dynamo.NewState(dynamo.IdentityQuat(), 0, p.ChiA, p.ChiB)
//
// # Thread Safety
//
// State values are plain slices and are not safe for concurrent mutation.
// Evaluators never retain or mutate caller-owned states.
package dynamo
