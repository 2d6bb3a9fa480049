package main

import "github.com/transcriptd/transcriptd/cmd"

func main() {
	cmd.Execute()
}
