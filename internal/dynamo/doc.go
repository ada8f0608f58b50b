// Package dynamo provides core simulation primitives for dynamical systems.
//
// The package defines the fundamental interfaces and types for numerical
// integration of ordinary differential equations (ODEs):
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Integrator]: fixed-step numerical integrator
//   - [AdaptiveIntegrator]: integrator with embedded error control
//   - [Solver]: drives an integrator across a grid of sample times
//
// # Example
//
//	net := kinetics.NewNetwork(rates)
//	solver := dynamo.NewSolver(integrators.NewRK45())
//	result, err := solver.Solve(ctx, net, x0, dynamo.Linspace(0, 40, 200), dynamo.DefaultConfig())
//
// # Thread Safety
//
// Solver instances are NOT thread-safe: metrics and integrator scratch
// buffers are per-run state. Build one solver per goroutine and fan out
// independent runs with [RunTasks].
package dynamo
