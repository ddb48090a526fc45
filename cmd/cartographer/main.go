package main

import "github.com/modwalk/cartographer/cmd"

func main() {
	cmd.Execute()
}
