package main

import "github.com/khrees2412/prospector/cmd"

func main() {
	cmd.Execute()
}
