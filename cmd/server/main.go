package main

import "github.com/eventradar/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}
