package main

import "github.com/comrade-chat/comrade-client/cmd"

func main() {
	cmd.Execute()
}
