package main

import "github.com/huythanhnguyen/mm-search-bot/cmd"

func main() {
	cmd.Execute()
}
