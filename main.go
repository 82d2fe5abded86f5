package main

import "github.com/dotcommander/assess/cmd"

func main() {
	cmd.Execute()
}
