package main

import "github.com/Champii/Plonky3/cmd"

func main() {
	cmd.Execute()
}
