package main

import "starload/cmd"

func main() {
	cmd.Execute()
}
