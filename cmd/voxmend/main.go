package main

import "github.com/voxmend/voxmend/internal/cli"

func main() {
	cli.Execute()
}
