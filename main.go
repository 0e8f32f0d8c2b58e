package main

import "freshpoint-watch/cmd"

func main() {
	cmd.Execute()
}
