package main

import "github.com/aleph-zero/stacklab/cmd"

func main() {
	cmd.Execute()
}
