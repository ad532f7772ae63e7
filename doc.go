/*
Package dona is a small to-do list library: a durable Task Store and a
presentation controller that turns screen intents into store calls.

# Concept

A Task has an ID, a title, a creation time and two flags (starred and
completed). The Task Store owns every mutation: titles are sanitized and
validated, creation times are strictly increasing, and each write is committed
to a pluggable repository before it returns. The controller holds the unsaved
draft of one screen and never persists anything on its own.

Storage is hexagonal. Any ports.TaskRepository works; the bundled adapters are
Loam (Markdown documents, the default), JSON files, memory, Redis and MySQL.
Repositories can be wrapped with middleware for logging, Prometheus metrics and
AES-GCM encryption of titles at rest.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/dona"
		"github.com/aretw0/dona/pkg/domain"
	)

	func main() {
		// Tasks are stored as Markdown documents under ./.dona/loam
		app, err := dona.New(".dona/loam")
		if err != nil {
			log.Fatal(err)
		}
		defer app.Close()

		ctx := context.Background()
		if _, err := app.Tasks().Create(ctx, "Buy milk", true); err != nil {
			log.Fatal(err)
		}

		// The controller drives a screen: edit a draft, then submit it.
		screen := app.Controller(domain.ThemeAuto)
		screen.SetDraftTitle("Call mom")
		if err := screen.Submit(ctx); err != nil {
			log.Fatal(err)
		}

		list, _ := screen.Tasks(ctx)
		for _, task := range list {
			fmt.Println(task.Title)
		}
	}
*/
package dona
