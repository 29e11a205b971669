package main

import "silence-cutter/cmd"

func main() {
	cmd.Execute()
}
