//go:build !unix

package process

import "os/exec"

// isolate leaves cmd alone; cancellation kills only the interpreter and
// WaitDelay bounds how long its children can hold the pipes.
func isolate(*exec.Cmd) {}
