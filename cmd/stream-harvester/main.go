package main

import cmd "github.com/rohmanhakim/stream-harvester/internal/cli"

func main() {
	cmd.Execute()
}
