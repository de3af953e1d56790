package main

import "github.com/7divs7/mcp-hub/cmd"

func main() {
	cmd.Execute()
}
