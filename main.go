package main

import "resumeclf/cmd"

func main() {
	cmd.Execute()
}
