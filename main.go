package main

import "github.com/kozaktomas/snapx/cmd"

func main() {
	cmd.Execute()
}
