package main

import "github.com/cardealbroker/dealbroker/pkg/cmd"

func main() {
	cmd.Execute()
}
