/*
Package ports defines the interfaces (ports) that connect the quest core
to the outside world.

Following Hexagonal Architecture, these are the "driven" ports the
interpreter and hosts depend on:

  - Backend: the external commit-message generation and setup capability.
  - StateStore: persistence of session states for hosts that outlive a process.
  - DistributedLocker: cross-replica serialisation of submissions.
*/
package ports
