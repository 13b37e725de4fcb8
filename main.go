package main

import "shrinkray/cmd"

func main() {
	cmd.Execute()
}
