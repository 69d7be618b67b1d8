package main

import "github.com/KaramelBytes/sheetask-cli/cmd"

func main() {
	cmd.Execute()
}
