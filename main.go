package main

import "github.com/KaramelBytes/estatelens-cli/cmd"

func main() {
	cmd.Execute()
}
