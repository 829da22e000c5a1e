package main

import "github.com/Alijeyrad/simorq_noshow/cmd"

func main() {
	cmd.Execute()
}
