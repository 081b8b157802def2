// blochsweep runs optical Bloch equation sweeps over detuning.
package main

import (
	"os"

	"blochsweep/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
