/*
Package ports defines the driven ports (interfaces) of the presence engine.

These interfaces decouple the coordination core from the collaborators that
actually paint transitions, report structural changes and carry events out of
the process.

# Key Interfaces

  - Animator: runs a node's visual transition and reports when the node's own
    transition (descendants excluded) has finished.
  - Observer: delivers batches of mutation records for a container.
  - Publisher: forwards lifecycle events (transition start/end, exit complete).
*/
package ports
