package main

import "hostwatch/cmd"

func main() {
	cmd.Execute()
}
