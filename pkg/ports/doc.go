/*
Package ports defines the driven ports (interfaces) of the Dona task list.

These interfaces decouple the task store from concrete storage backends, so the
same semantics run over memory, plain files, Loam documents, Redis or MySQL.

# Key Interfaces

  - TaskRepository: durable insert/replace, lookup, delete and listing of Task records.

RunTaskRepositoryContract is a reusable test suite every adapter must pass.
*/
package ports
