package main

import "github.com/jsphweid/satbsplit/cmd"

func main() {
	cmd.Execute()
}
