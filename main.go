package main

import "github.com/naka-gawa/repo-profiles/cmd"

func main() {
	cmd.Execute()
}
