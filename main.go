package main

import "github.com/kasuboski/umaru/cmd"

func main() {
	cmd.Execute()
}
