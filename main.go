package main

import "github.com/morehouse/mhouse/cmd"

func main() {
	cmd.Execute()
}
