package main

import "github.com/nextlevelbuilder/telegpt/cmd"

func main() {
	cmd.Execute()
}
