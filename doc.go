/*
Package gantry is the build and release orchestrator of a project scaffolding generator.

It declares the generator's maintenance tasks (bumping the version, generating and
publishing a demo application, refreshing test fixtures, running the test suite and
checking dependencies) as a graph of named tasks with prerequisites and targets.

# Concept

A task is a name, a set of prerequisites and an action. Invoking "releaseDemo"
first runs its prerequisites in order, depth first, then its own action. A name
such as "bump:minor" selects the "minor" target of the "bump" task. Steps inside
an action are composed with pkg/chain: each step settles before the next begins,
the first failure short-circuits the rest, and cleanup runs exactly once.

# Usage

	p, err := gantry.New(".", gantry.WithLogger(logger))
	if err != nil {
		return err
	}
	return p.Run(ctx, "test:fast")

External programs (git, npm, bower, the scaffolder) are reached through the
ports.ProcessRunner interface, so every task runs against fakes in tests.
*/
package gantry

// Version is the gantry release version.
var Version = "0.1.0"
