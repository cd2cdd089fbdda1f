package main

import "trello-project/web-client/cli"

func main() {
	cli.Execute()
}
