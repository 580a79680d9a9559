/*
Package ports defines the driven ports (interfaces) of gantry.

These interfaces decouple the orchestration logic from the outside world, so the
fixture manager and the demo controller can be exercised with recording fakes.

# Key Interfaces

  - ProcessRunner: launches external commands (package managers, git, build tools).
  - Scaffolder: invokes the scaffolding engine as an opaque collaborator.
  - Locker: serialises publishing across concurrent invocations.
*/
package ports
