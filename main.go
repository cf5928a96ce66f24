package main

import (
	"MacanFM/cmd"
)

func main() {
	cmd.Execute()
}
