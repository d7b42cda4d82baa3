package main

import "go-pos-ws/cmd/posctl/commands"

func main() {
	commands.Execute()
}
