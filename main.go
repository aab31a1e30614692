package main

import (
	"github.com/yumyai/msaprep/cmd"
)

func main() {
	cmd.Execute()
}
