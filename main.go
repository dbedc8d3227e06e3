package main

import "github.com/KaramelBytes/salesdash/cmd"

func main() {
	cmd.Execute()
}
