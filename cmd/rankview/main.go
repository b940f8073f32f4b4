package main

import "github.com/JonMunkholm/rankview/internal/cli"

func main() {
	cli.Execute()
}
