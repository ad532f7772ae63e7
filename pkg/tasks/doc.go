/*
Package tasks implements the Task Store: the single source of truth for the
task list, layered over a ports.TaskRepository.

The store validates titles, allocates IDs and creation timestamps, commits every
mutation to the repository before returning, and always lists tasks newest
first. Failed commits surface as errors wrapping domain.ErrCommitFailed so the
presentation layer can tell the user their change was not saved.

Read-modify-write operations on one task are serialized with a per-task lock
(and optionally a ports.DistributedLocker), so a Store can back concurrent
HTTP or MCP requests.
*/
package tasks
