package main

import "github.com/qserver-tools/qdiag/cmd"

func main() {
	cmd.Execute()
}
