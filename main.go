package main

import "github.com/gloriamundo/gloriamundo/cmd"

func main() {
	cmd.Execute()
}
