/*
Package domain contains the core domain models of the presence engine.

It defines the presentable node tree that coordinators mark and reorder, the
per-node transition state, the structural mutation records delivered to
observers, and the lifecycle events emitted while transitions run. The package
has no I/O and no third-party dependencies, following Hexagonal Architecture
principles.

# Key Entities

  - Document: owns a node tree and serializes every read and write to it.
  - Node: an element, text or shadow root. Elements carry attributes, style
    properties (the "--i" ordering index), an optional attached Host and a
    NodeState.
  - NodeState: the tagged transition state (Idle, Entering, Entered,
    PendingExit, Exiting, Exited). Markers are derived from it.
  - MutationRecord: one structural or attribute change, as seen by observers.
  - Event: a dispatchable notification that bubbles through the tree, used for
    the exitComplete completion signal.
*/
package domain
