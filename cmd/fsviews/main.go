// Command fsviews renders, inspects and deploys FacturaScripts view trees.
package main

import (
	"os"

	"github.com/abdedarghal111/facturascripts/internal/log"
)

var version = "v0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}
