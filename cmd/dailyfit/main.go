package main

import "github.com/2beens/dailyfit/internal/cli"

func main() {
	cli.Execute()
}
