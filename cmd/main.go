package main

import "github.com/Capitan-Parrot/distributed-video-system/console/internal/cli"

func main() {
	cli.Execute()
}
