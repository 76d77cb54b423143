package main

import "github.com/example/aimharder-scheduler/cmd"

func main() {
	cmd.Execute()
}
