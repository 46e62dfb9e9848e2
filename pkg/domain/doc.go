/*
Package domain contains the core domain models of Commit Message Quest.

It defines the transcript, the wizard stages of a session, the commands that
raw input parses into, and the results returned by the commit-message
backend. This package is kept pure and free of I/O, following Hexagonal
Architecture principles.

# Key Entities

  - Entry: a single line of the transcript (user, system or error).
  - Stage: the current wizard stage (Idle, AwaitingClass, AwaitingMessage).
  - State: the runtime snapshot of a session (Stage, ProjectDir, Transcript).
  - Command: the typed interpretation of one line of input.
  - GenerationResult / SetupResult: opaque payloads from the backend.
*/
package domain
