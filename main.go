package main

import (
	"os"

	"github.com/fenilmodi00/vnmarket/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
