/*
Package domain contains the core types shared by every gantry component.

It defines the process invocation model (Command, Result, OutputLine), the
observability events emitted while tasks and processes run, and the error
taxonomy surfaced to the invoker. The package has no I/O and no external
dependencies.

# Error Taxonomy

  - SpawnError: an executable could not be launched.
  - MalformedTemplateError: unterminated or unbalanced template markers.
  - TaskNotFoundError: a referenced task was never registered.
  - ChainFailure: a step failed and no recovery handler was installed.
  - CycleError, TaskError, ExitError: graph cycles, task attribution, opt-in status checks.
*/
package domain
