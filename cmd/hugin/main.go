package main

import "github.com/hugin/hugin/cmd"

func main() {
	cmd.Execute()
}
