// Command parallel-task is the entry point spawned for each sleeper task. It
// is invoked as
//
//	parallel-task [--codec json|yaml] <payload>
//
// and loads the task from the payload file, runs it and writes it back.
// Without --codec the codec is taken from PARALLEL_TASK_CODEC.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/seantiz/parallel/internal/process"
	"github.com/seantiz/parallel/internal/task"
)

func main() {
	codecName := flag.String("codec", os.Getenv("PARALLEL_TASK_CODEC"), "payload codec: json or yaml")
	flag.Parse()

	codec, err := task.ByName[*task.Sleeper](*codecName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(process.ChildExitLoadFailed)
	}

	os.Exit(process.RunChild(codec, flag.Args()))
}
