package main

import "github.com/thegrumpylion/gmail-manager/cmd"

func main() {
	cmd.Execute()
}
