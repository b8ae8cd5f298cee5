//go:build !linux

package process

// waitExited is a no-op where waitid is unavailable; signalTerminate falls
// back to checking the process is alive before signalling it.
func waitExited(int) {}
