package main

import "github.com/lacework/code-security-action/cmd"

func main() {
	cmd.Execute()
}
