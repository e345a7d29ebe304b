package main

import "github.com/blkbis/idxqc/cmd"

func main() {
	cmd.Execute()
}
