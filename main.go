package main

import "github.com/pacquet/pacquet/cmd"

func main() {
	cmd.Execute()
}
