// Command scheduler-service runs the scheduling suggestion HTTP service.
package main

import (
	"os"

	"github.com/routinely/routinely-server/schedulerservice"
)

func main() {
	// Run logs its own errors; the exit code is all that is left to do here.
	if err := schedulerservice.Run(); err != nil {
		os.Exit(1)
	}
}
