package main

import "github.com/khanhnv2901/techradar-cli/cmd"

func main() {
	cmd.Execute()
}
