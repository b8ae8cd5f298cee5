// Package process runs a single task in its own OS process.
//
// A Handle owns exactly one child process and the four temporary files used
// to talk to it: the encoded task payload, captured stdout, captured stderr
// and the recorded exit code. The controller encodes the task into the
// payload file and spawns
//
//	<interpreter> <entryPoint> <payloadPath>
//
// The entry point decodes the task from the payload path, runs it, encodes
// the mutated task back to the same path and exits (see RunChild). Once the
// child has exited, Sync merges the decoded task into the caller's original
// instance, captures the outputs and removes the temporary files.
//
// Handles are not safe for concurrent use; they are driven by a single
// controller goroutine. Liveness checks never block.
package process
