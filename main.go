package main

import "github.com/egeskov/localenv/cmd"

func main() {
	cmd.Execute()
}
