package main

import "github.com/crystaldolphin/cronkeeper/cmd"

func main() {
	cmd.Execute()
}
