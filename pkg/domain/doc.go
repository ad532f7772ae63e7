/*
Package domain contains the core entities of the Dona task list.

It defines the Task record, the sentinel errors shared by every layer, the change
events emitted after a commit, and the display Theme. This package is kept pure
and free of I/O or persistence concerns, following Hexagonal Architecture
principles: storage lives behind ports.TaskRepository and presentation lives in
the controller and the adapters.

# Key Entities

  - Task: a single to-do entry (title, star flag, completion flag, creation time).
  - ChangeEvent: notification that a Task was created, updated or deleted.
  - Theme: the visual variant (light or dark) a screen is rendered with.
*/
package domain
