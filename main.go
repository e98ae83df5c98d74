package main

import "github.com/natcap/invest-submit/cmd"

func main() {
	cmd.Execute()
}
