package mq

import (
	"context"
	"encoding/json"
	"log"

	"boutique/models"
	"boutique/rdx"
)

const channel = "indexing-events"

// Emit publishes an entity change event to the indexing channel.
// Failures are logged and swallowed; indexing is best-effort.
// The publish runs on its own context: callers hand Emit to a
// goroutine while the request context they hold is being cancelled.
func Emit(_ context.Context, eventName string, content models.Index) {
	data, err := json.Marshal(content)
	if err != nil {
		log.Printf("[Emit] Failed to marshal event content: %v", err)
		return
	}

	if err := rdx.Conn.Publish(context.Background(), channel, data).Err(); err != nil {
		log.Printf("[Emit] Failed to publish %s: %v", eventName, err)
	}
}

// StartIndexingWorker consumes entity change events. The worker only
// logs for now; a search indexer can hang off this loop.
func StartIndexingWorker() {
	ctx := context.Background()
	sub := rdx.Conn.Subscribe(ctx, channel)
	ch := sub.Channel()

	log.Println("[IndexingWorker] Listening for indexing events...")

	for msg := range ch {
		var event models.Index
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			log.Printf("[IndexingWorker] Failed to parse event: %v", err)
			continue
		}
		log.Printf("[IndexingWorker] %s %s/%s", event.Method, event.EntityType, event.EntityId)
	}
}
