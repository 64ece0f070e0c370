package eventbus

import (
	"fmt"
	"strings"
)

// groupNameFor returns the consumer group of the n-th handler registered
// for eventType. Every handler gets its own group so each sees every event.
func groupNameFor(base, eventType string, n int) string {
	return fmt.Sprintf("%s:%s:%d", base, nameFor(eventType), n)
}

// consumerNameFor returns the consumer name inside a handler's group.
func consumerNameFor(eventType string, n int, host string) string {
	return fmt.Sprintf("consumer:%s:%d:%s", nameFor(eventType), n, host)
}

// dlqStreamName returns the dead letter stream for stream.
func dlqStreamName(stream string) string {
	return stream + ":dlq"
}

// nameFor turns "Simulation.Changed" into "simulation_changed".
func nameFor(eventType string) string {
	return strings.ToLower(strings.ReplaceAll(eventType, ".", "_"))
}
