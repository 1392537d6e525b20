package main

import "github.com/hbomb79/Sectrans/cmd"

func main() {
	cmd.Execute()
}
