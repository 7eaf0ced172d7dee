package main

import "github.com/northcutted/dock-deps/cmd"

func main() {
	cmd.Execute()
}
