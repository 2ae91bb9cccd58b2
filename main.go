package main

import "github.com/CraigKelly/bvsel/cmd"

func main() {
	cmd.Execute()
}
