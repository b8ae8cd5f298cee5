// Package engine wires a scheduler to run history and live event streaming.
// Every scheduler event is logged, recorded in the store when it concerns a
// process, and fanned out through an EventBroker for SSE subscribers.
package engine
