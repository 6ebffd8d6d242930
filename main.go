package main

import cmd "github.com/Geun-Oh/ngmon/cmd/ngmon"

func main() {
	cmd.Execute()
}
