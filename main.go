package main

import "github.com/truemediaorg/tiktokpost/cmd"

func main() {
	cmd.Execute()
}
